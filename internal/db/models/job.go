package models

import "time"

// JobStatus tracks where a job is in its lifecycle.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// Terminal reports whether no further transitions are permitted.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job is one submitted unit of work. A job belongs to exactly one account
// and only ever moves forward: pending -> processing -> completed|error.
type Job struct {
	ID         string    `gorm:"primaryKey" json:"jobId"` // UUID
	AccountKey string    `gorm:"index" json:"-"`
	Title      string    `json:"title"`
	Sequence   string    `json:"sequence"`
	FileName   string    `json:"fileName,omitempty"`
	Options    string    `gorm:"type:text" json:"options"` // JSON blob, passed through to the predictor untouched
	Status     JobStatus `gorm:"index" json:"status"`

	ResultImage    string `gorm:"type:text" json:"resultImage,omitempty"` // base64 PNG
	ResultAnalysis string `gorm:"type:text" json:"resultAnalysis,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`

	CreatedAt           time.Time  `json:"createdAt"`
	ProcessingStartedAt *time.Time `json:"processingStartedAt,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	ErrorAt             *time.Time `json:"errorAt,omitempty"`
}
