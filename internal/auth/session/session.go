// Package session mints and verifies the signed tokens issued after a
// successful Google sign-in.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie the browser client carries the session in.
const CookieName = "thermoters_session"

// DefaultTTL bounds how long a sign-in stays valid.
const DefaultTTL = 24 * time.Hour

// Claims is the verified caller identity embedded in a session token.
// Subject carries the provider subject id, which is what authorization
// checks compare; the account key is only an addressing shortcut.
type Claims struct {
	AccountKey string `json:"accountKey"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// Manager signs and validates session tokens with a shared HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session token for the authenticated identity.
func (m *Manager) Issue(accountKey, subjectID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		AccountKey: accountKey,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.AccountKey == "" || claims.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// SetCookie attaches the session token to the response.
func (m *Manager) SetCookie(w http.ResponseWriter, tokenString string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Expires:  time.Now().Add(m.ttl),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
