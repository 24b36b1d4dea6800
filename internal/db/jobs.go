package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thermoters/jobd/internal/db/models"
	"gorm.io/gorm"
)

// JobSpec is the payload for a new job. Sequence must already be normalized
// and validated; Options is the JSON-encoded predictor configuration.
type JobSpec struct {
	Title    string
	Sequence string
	FileName string
	Options  string
}

// JobResult is the payload the processing step produced for a completed job.
type JobResult struct {
	Image    string
	Analysis string
}

// CreateJob persists a new job in the pending state and returns its id.
func CreateJob(database *gorm.DB, accountKey string, spec JobSpec) (string, error) {
	if strings.TrimSpace(spec.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if spec.Sequence == "" {
		return "", fmt.Errorf("%w: no input sequence", ErrValidation)
	}

	job := models.Job{
		ID:         uuid.New().String(),
		AccountKey: accountKey,
		Title:      spec.Title,
		Sequence:   spec.Sequence,
		FileName:   spec.FileName,
		Options:    spec.Options,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}
	if err := database.Create(&job).Error; err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	return job.ID, nil
}

// GetJob loads a single job owned by the account.
func GetJob(database *gorm.DB, accountKey, jobID string) (*models.Job, error) {
	var job models.Job
	err := database.Where("id = ? AND account_key = ?", jobID, accountKey).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// BeginProcessing moves a pending job to processing. The conditional update
// is what makes re-delivered creation events harmless: only the first caller
// gets applied=true, a duplicate finds the job already processing and gets a
// no-op, and any terminal state is an invalid transition.
func BeginProcessing(database *gorm.DB, accountKey, jobID string) (bool, error) {
	now := time.Now()
	res := database.Model(&models.Job{}).
		Where("id = ? AND account_key = ? AND status = ?", jobID, accountKey, models.StatusPending).
		Updates(map[string]interface{}{
			"status":                models.StatusProcessing,
			"processing_started_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("begin processing: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	job, err := GetJob(database, accountKey, jobID)
	if err != nil {
		return false, err
	}
	if job.Status == models.StatusProcessing {
		return false, nil // duplicate delivery
	}
	return false, fmt.Errorf("%w: %s -> processing", ErrInvalidTransition, job.Status)
}

// CompleteJob records the result and moves a processing job to completed.
// Re-completing an already completed job is a no-op.
func CompleteJob(database *gorm.DB, accountKey, jobID string, result JobResult) error {
	now := time.Now()
	res := database.Model(&models.Job{}).
		Where("id = ? AND account_key = ? AND status = ?", jobID, accountKey, models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":          models.StatusCompleted,
			"result_image":    result.Image,
			"result_analysis": result.Analysis,
			"completed_at":    now,
		})
	if res.Error != nil {
		return fmt.Errorf("complete job: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	job, err := GetJob(database, accountKey, jobID)
	if err != nil {
		return err
	}
	if job.Status == models.StatusCompleted {
		return nil
	}
	return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, job.Status)
}

// FailJob records a terminal failure. Allowed from processing, and from
// pending as a fallback when the processing step could not even start.
// Re-failing an already errored job is a no-op.
func FailJob(database *gorm.DB, accountKey, jobID, message string) error {
	now := time.Now()
	res := database.Model(&models.Job{}).
		Where("id = ? AND account_key = ? AND status IN ?", jobID, accountKey,
			[]models.JobStatus{models.StatusProcessing, models.StatusPending}).
		Updates(map[string]interface{}{
			"status":        models.StatusError,
			"error_message": message,
			"error_at":      now,
		})
	if res.Error != nil {
		return fmt.Errorf("fail job: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	job, err := GetJob(database, accountKey, jobID)
	if err != nil {
		return err
	}
	if job.Status == models.StatusError {
		return nil
	}
	return fmt.Errorf("%w: %s -> error", ErrInvalidTransition, job.Status)
}

// ListJobs returns every job owned by the account, newest first.
func ListJobs(database *gorm.DB, accountKey string) ([]models.Job, error) {
	var jobs []models.Job
	err := database.Where("account_key = ?", accountKey).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListJobsByStatus returns all jobs in the given state across accounts.
// Used by the processor's reconciliation sweep.
func ListJobsByStatus(database *gorm.DB, status models.JobStatus) ([]models.Job, error) {
	var jobs []models.Job
	err := database.Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs by status: %w", err)
	}
	return jobs, nil
}

// ListStuckProcessing returns jobs that entered processing before cutoff and
// never reached a terminal state.
func ListStuckProcessing(database *gorm.DB, cutoff time.Time) ([]models.Job, error) {
	var jobs []models.Job
	err := database.Where("status = ? AND processing_started_at < ?", models.StatusProcessing, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list stuck jobs: %w", err)
	}
	return jobs, nil
}
