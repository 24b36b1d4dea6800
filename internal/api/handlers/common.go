package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thermoters/jobd/internal/api/middleware"
	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/db/models"
	"gorm.io/gorm"
)

var errOwnershipMismatch = errors.New("account is not owned by the caller")

// writeJSON sends a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// requireAccount loads the caller's account and verifies ownership against
// the provider subject id. The derived account key alone is never trusted
// as an authorization proof.
func requireAccount(database *gorm.DB, ident middleware.Identity) (*models.Account, error) {
	account, err := db.GetAccount(database, ident.AccountKey)
	if err != nil {
		return nil, err
	}
	if account.SubjectID != ident.SubjectID {
		return nil, errOwnershipMismatch
	}
	return account, nil
}

// callerAccount resolves the authenticated account for a request, writing
// the error response itself when that fails.
func callerAccount(w http.ResponseWriter, r *http.Request, database *gorm.DB) (*models.Account, bool) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	account, err := requireAccount(database, ident)
	if errors.Is(err, db.ErrAccountNotFound) || errors.Is(err, errOwnershipMismatch) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Account store unavailable")
		return nil, false
	}
	return account, true
}
