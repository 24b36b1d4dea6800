package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/thermoters/jobd/internal/auth/session"
	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/identity"
	"gorm.io/gorm"
)

// HandleCallback processes the OAuth callback from Google: it resolves the
// account key from the verified identity, creates the account record on
// first login (touches lastLoginAt on later ones) and hands the browser a
// session token.
func HandleCallback(database *gorm.DB, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != GetStateToken() {
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}

		config := GetOAuthConfig(redirectURLFor(r))
		token, err := config.Exchange(context.Background(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		client := config.Client(context.Background(), token)
		resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get user info: %v", err), http.StatusInternalServerError)
			return
		}
		defer resp.Body.Close()

		var userInfo struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
			http.Error(w, fmt.Sprintf("Failed to decode user info: %v", err), http.StatusInternalServerError)
			return
		}

		accountKey, err := identity.Resolve(userInfo.Email, userInfo.ID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to resolve identity: %v", err), http.StatusInternalServerError)
			return
		}

		account, err := db.EnsureAccount(database, accountKey, userInfo.ID, userInfo.Email)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to store account: %v", err), http.StatusInternalServerError)
			return
		}

		sessionToken, err := sessions.Issue(account.AccountKey, account.SubjectID, account.Email)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to issue session: %v", err), http.StatusInternalServerError)
			return
		}
		sessions.SetCookie(w, sessionToken)

		log.Printf("🔐 Signed in %s (account %s)", account.Email, account.AccountKey)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta http-equiv="refresh" content="2;url=/">
	<title>Login Successful</title>
</head>
<body>
	<h2>Login successful</h2>
	<p>You are signed in. Redirecting…</p>
</body>
</html>`)
	}
}
