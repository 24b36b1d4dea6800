package handlers

import (
	"net/http"

	"github.com/thermoters/jobd/internal/quota"
	"gorm.io/gorm"
)

// AccountHandler returns the caller's account summary, including how many
// submissions remain in the current quota window.
func AccountHandler(database *gorm.DB, tracker *quota.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := callerAccount(w, r, database)
		if !ok {
			return
		}

		remaining, err := tracker.Remaining(account.AccountKey)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "Quota store unavailable")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"accountKey":  account.AccountKey,
			"email":       account.Email,
			"createdAt":   account.CreatedAt,
			"lastLoginAt": account.LastLoginAt,
			"lastJobId":   account.LastJobID,
			"usage": map[string]interface{}{
				"count":       account.UsageCount,
				"windowStart": account.WindowStart,
				"limit":       tracker.Limit,
				"remaining":   remaining,
			},
		})
	}
}
