package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/thermoters/jobd/internal/db/models"
	"gorm.io/gorm"
)

// EnsureAccount creates the account record on first login and refreshes
// lastLoginAt on every later one. Usage fields are never written here, so a
// login cannot clobber an in-flight quota window.
func EnsureAccount(database *gorm.DB, accountKey, subjectID, email string) (*models.Account, error) {
	now := time.Now()

	var account models.Account
	err := database.Where("account_key = ?", accountKey).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = models.Account{
			AccountKey:  accountKey,
			SubjectID:   subjectID,
			Email:       email,
			WindowStart: now,
			CreatedAt:   now,
			LastLoginAt: now,
		}
		if createErr := database.Create(&account).Error; createErr != nil {
			// A concurrent first login can insert the row between the read
			// and the create. Re-read before treating this as a failure.
			var existing models.Account
			if err := database.Where("account_key = ?", accountKey).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("create account: %w", createErr)
			}
			if err := database.Model(&existing).Update("last_login_at", now).Error; err != nil {
				return nil, fmt.Errorf("touch last login: %w", err)
			}
			existing.LastLoginAt = now
			return &existing, nil
		}
		return &account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := database.Model(&account).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("touch last login: %w", err)
	}
	account.LastLoginAt = now
	return &account, nil
}

// GetAccount loads the account record for a key.
func GetAccount(database *gorm.DB, accountKey string) (*models.Account, error) {
	var account models.Account
	err := database.Where("account_key = ?", accountKey).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &account, nil
}

// SetLastJob records the most recently finished job for the account.
func SetLastJob(database *gorm.DB, accountKey, jobID string) error {
	res := database.Model(&models.Account{}).
		Where("account_key = ?", accountKey).
		Update("last_job_id", jobID)
	if res.Error != nil {
		return fmt.Errorf("set last job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
