// Package identity derives the stable key that addresses an account's
// record and job collection.
package identity

import (
	"errors"
	"strings"
)

// ErrEmptySubject is returned when the provider subject id is missing.
// Without the subject suffix the key would collapse to the sanitized email
// and lose its collision guarantee.
var ErrEmptySubject = errors.New("identity: empty provider subject id")

// Resolve builds the account key for an authenticated identity. The email
// is made storage-safe (@ and . become textual tokens, everything outside
// [a-zA-Z0-9_-] is dropped) and the provider subject id is appended.
// The same identity always yields the same key. The key is an addressing
// scheme only; authorization still compares the verified subject id.
func Resolve(email, subjectID string) (string, error) {
	if subjectID == "" {
		return "", ErrEmptySubject
	}
	sanitized := strings.ReplaceAll(email, "@", "_at_")
	sanitized = strings.ReplaceAll(sanitized, ".", "_dot_")

	var b strings.Builder
	for _, r := range sanitized {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String() + "-" + subjectID, nil
}
