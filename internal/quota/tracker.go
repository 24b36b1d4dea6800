// Package quota meters submissions against a fixed rolling window per
// account.
package quota

import (
	"errors"
	"fmt"
	"time"

	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/db/models"
	"gorm.io/gorm"
)

// ErrExceeded is returned when a reservation would push the account past
// its window limit.
var ErrExceeded = errors.New("submission quota exceeded")

const (
	DefaultLimit  = 100
	DefaultWindow = 30 * 24 * time.Hour

	maxReserveAttempts = 5
)

// Tracker decides whether a new submission is admissible and charges the
// account's rolling usage counter.
type Tracker struct {
	db     *gorm.DB
	Limit  int
	Window time.Duration
}

func NewTracker(database *gorm.DB, limit int, window time.Duration) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{db: database, Limit: limit, Window: window}
}

// Decision is the outcome of one admission attempt.
type Decision struct {
	Admitted  bool
	Remaining int
}

// CheckAndReserve atomically admits and charges cost units against the
// account's current window. Every mutation is a conditional update keyed on
// the state that was read, retried on conflict, so two racing submissions
// can never both consume the last unit. A store error fails closed.
func (t *Tracker) CheckAndReserve(accountKey string, cost int) (Decision, error) {
	if cost <= 0 {
		cost = 1
	}

	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		account, err := db.GetAccount(t.db, accountKey)
		if err != nil {
			return Decision{}, fmt.Errorf("quota check: %w", err)
		}

		now := time.Now()
		count := account.UsageCount
		windowStart := account.WindowStart

		if now.After(windowStart.Add(t.Window)) {
			// Window expired: the rollover is part of the same admission
			// attempt, guarded by the windowStart we read.
			res := t.db.Model(&models.Account{}).
				Where("account_key = ? AND window_start = ?", accountKey, windowStart).
				Updates(map[string]interface{}{"usage_count": 0, "window_start": now})
			if res.Error != nil {
				return Decision{}, fmt.Errorf("quota rollover: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue // another submission rolled the window first, re-read
			}
			count = 0
			windowStart = now
		}

		if count+cost > t.Limit {
			remaining := t.Limit - count
			if remaining < 0 {
				remaining = 0
			}
			return Decision{Admitted: false, Remaining: remaining}, ErrExceeded
		}

		res := t.db.Model(&models.Account{}).
			Where("account_key = ? AND usage_count = ? AND window_start = ?", accountKey, count, windowStart).
			Update("usage_count", count+cost)
		if res.Error != nil {
			return Decision{}, fmt.Errorf("quota reserve: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return Decision{Admitted: true, Remaining: t.Limit - count - cost}, nil
		}
		// Lost the race against a concurrent reservation, retry with fresh
		// state.
	}
	return Decision{}, errors.New("quota reserve: too much contention")
}

// Remaining reports how many units the account may still submit in the
// current window without charging anything.
func (t *Tracker) Remaining(accountKey string) (int, error) {
	account, err := db.GetAccount(t.db, accountKey)
	if err != nil {
		return 0, err
	}
	if time.Now().After(account.WindowStart.Add(t.Window)) {
		return t.Limit, nil
	}
	remaining := t.Limit - account.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
