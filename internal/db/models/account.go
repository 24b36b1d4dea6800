package models

import "time"

// Account is the durable record for one authenticated user: identity,
// login bookkeeping, the rolling usage window that meters submissions and a
// pointer to the most recently finished job.
type Account struct {
	AccountKey string `gorm:"primaryKey"` // derived from email + subject id, see internal/identity
	SubjectID  string `gorm:"uniqueIndex"`
	Email      string

	UsageCount  int       // submissions admitted in the current window
	WindowStart time.Time // start of the current usage window
	LastJobID   *string

	CreatedAt   time.Time
	LastLoginAt time.Time
	UpdatedAt   time.Time
}
