package handlers

import (
	"net/http"
	"time"
)

// PingHandler is the health check endpoint.
func PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Ping received at " + time.Now().Format(time.RFC3339),
		})
	}
}
