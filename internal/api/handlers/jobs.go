package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thermoters/jobd/internal/db"
	"gorm.io/gorm"
)

// GetJobHandler returns the full stored job document.
func GetJobHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := callerAccount(w, r, database)
		if !ok {
			return
		}

		job, err := db.GetJob(database, account.AccountKey, chi.URLParam(r, "jobID"))
		if errors.Is(err, db.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "Job store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// DownloadJobHandler serves the stored job record as a downloadable
// document. A pure projection: nothing about the job changes.
func DownloadJobHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := callerAccount(w, r, database)
		if !ok {
			return
		}

		job, err := db.GetJob(database, account.AccountKey, chi.URLParam(r, "jobID"))
		if errors.Is(err, db.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "Job store unavailable")
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ID+".json"))
		writeJSON(w, http.StatusOK, job)
	}
}
