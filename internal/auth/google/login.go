package google

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
)

// stateToken protects the OAuth flow against CSRF.
var stateToken string

func init() {
	b := make([]byte, 16)
	rand.Read(b)
	stateToken = hex.EncodeToString(b)
}

// HandleLogin initiates the Google OAuth flow by redirecting to Google's
// consent page.
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	config := GetOAuthConfig(redirectURLFor(r))
	http.Redirect(w, r, config.AuthCodeURL(stateToken), http.StatusTemporaryRedirect)
}

// GetStateToken returns the current CSRF state token for validation.
func GetStateToken() string {
	return stateToken
}

// redirectURLFor reconstructs the callback URL from the incoming request so
// the flow works behind proxies and on non-standard ports.
func redirectURLFor(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/auth/google/callback", scheme, r.Host)
}
