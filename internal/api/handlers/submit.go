package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/predictor"
	"github.com/thermoters/jobd/internal/processor"
	"github.com/thermoters/jobd/internal/quota"
	"github.com/thermoters/jobd/internal/sequence"
	"gorm.io/gorm"
)

type submitRequest struct {
	Title string `json:"title"`
	Input struct {
		Sequence        string `json:"sequence,omitempty"`
		UploadedContent []byte `json:"uploadedContent,omitempty"`
		FileName        string `json:"fileName,omitempty"`
	} `json:"input"`
	Options *predictor.Options `json:"options,omitempty"`
}

// SubmitJobHandler validates a submission, reserves quota and creates the
// job in the pending state. The quota is charged before the job is written;
// if the write then fails the reservation is not refunded (charge on
// attempt). The response returns as soon as the pending record exists, the
// result arrives asynchronously.
func SubmitJobHandler(database *gorm.DB, tracker *quota.Tracker, proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := callerAccount(w, r, database)
		if !ok {
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		seq, err := extractSequence(&req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		opts := predictor.DefaultOptions()
		if req.Options != nil {
			opts = *req.Options
		}
		optsJSON, err := json.Marshal(opts)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid options")
			return
		}

		spec := db.JobSpec{
			Title:    req.Title,
			Sequence: seq,
			FileName: req.Input.FileName,
			Options:  string(optsJSON),
		}
		// Validate before reserving so a rejected submission never touches
		// the quota.
		if err := validateSpec(spec); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		decision, err := tracker.CheckAndReserve(account.AccountKey, 1)
		if errors.Is(err, quota.ErrExceeded) {
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Submission limit of %d sequences per window reached", tracker.Limit))
			return
		}
		if err != nil {
			// The quota check fails closed: no reservation, no job.
			writeError(w, http.StatusServiceUnavailable, "Quota store unavailable")
			return
		}

		jobID, err := db.CreateJob(database, account.AccountKey, spec)
		if err != nil {
			log.Printf("⚠️ job create after reservation failed for %s: %v", account.AccountKey, err)
			writeError(w, http.StatusInternalServerError, "Failed to create job")
			return
		}
		proc.Notify(account.AccountKey, jobID)

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"jobId":     jobID,
			"remaining": decision.Remaining,
		})
	}
}

// extractSequence resolves the submission input to a single normalized,
// validated sequence. Exactly one input form must be present.
func extractSequence(req *submitRequest) (string, error) {
	hasInline := req.Input.Sequence != ""
	hasUpload := len(req.Input.UploadedContent) > 0

	switch {
	case hasInline && hasUpload:
		return "", errors.New("provide either a sequence or a file, not both")
	case hasUpload:
		if req.Input.FileName == "" {
			return "", errors.New("uploaded content requires a file name")
		}
		seq, err := sequence.FromUpload(req.Input.UploadedContent, req.Input.FileName)
		if err != nil {
			return "", err
		}
		return seq, sequence.Validate(seq)
	case hasInline:
		seq := sequence.Normalize(req.Input.Sequence)
		return seq, sequence.Validate(seq)
	default:
		return "", sequence.ErrEmpty
	}
}

func validateSpec(spec db.JobSpec) error {
	if strings.TrimSpace(spec.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}
