package quota

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/db/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(&models.Account{}, &models.Job{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func seedAccount(t *testing.T, database *gorm.DB) *models.Account {
	t.Helper()
	account, err := db.EnsureAccount(database, "jane_at_lab_dot_org-u1", "u1", "jane@lab.org")
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}

func TestCheckAndReserveAdmitsAndCharges(t *testing.T) {
	database := newTestDB(t)
	account := seedAccount(t, database)
	tracker := NewTracker(database, 100, DefaultWindow)

	decision, err := tracker.CheckAndReserve(account.AccountKey, 1)
	if err != nil {
		t.Fatalf("CheckAndReserve() error = %v", err)
	}
	if !decision.Admitted || decision.Remaining != 99 {
		t.Errorf("decision = %+v, want admitted with 99 remaining", decision)
	}

	reloaded, _ := db.GetAccount(database, account.AccountKey)
	if reloaded.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", reloaded.UsageCount)
	}
}

func TestCheckAndReserveLastUnit(t *testing.T) {
	database := newTestDB(t)
	account := seedAccount(t, database)
	tracker := NewTracker(database, 100, DefaultWindow)

	database.Model(account).Update("usage_count", 99)

	decision, err := tracker.CheckAndReserve(account.AccountKey, 1)
	if err != nil || !decision.Admitted {
		t.Fatalf("reservation of last unit = (%+v, %v), want admitted", decision, err)
	}

	decision, err = tracker.CheckAndReserve(account.AccountKey, 1)
	if !errors.Is(err, ErrExceeded) {
		t.Fatalf("reservation past limit = %v, want ErrExceeded", err)
	}
	if decision.Admitted || decision.Remaining != 0 {
		t.Errorf("decision = %+v, want rejected with 0 remaining", decision)
	}

	reloaded, _ := db.GetAccount(database, account.AccountKey)
	if reloaded.UsageCount != 100 {
		t.Errorf("usage count = %d, rejection must not mutate state", reloaded.UsageCount)
	}
}

func TestCheckAndReserveConcurrentNeverExceedsLimit(t *testing.T) {
	database := newTestDB(t)
	account := seedAccount(t, database)

	const limit = 10
	tracker := NewTracker(database, limit, DefaultWindow)

	var wg sync.WaitGroup
	admitted := make(chan bool, 3*limit)
	for i := 0; i < 3*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := tracker.CheckAndReserve(account.AccountKey, 1)
			if err != nil && !errors.Is(err, ErrExceeded) {
				t.Errorf("CheckAndReserve() error = %v", err)
				return
			}
			admitted <- decision.Admitted
		}()
	}
	wg.Wait()
	close(admitted)

	admittedCount := 0
	for ok := range admitted {
		if ok {
			admittedCount++
		}
	}
	if admittedCount > limit {
		t.Errorf("admitted %d submissions, limit is %d", admittedCount, limit)
	}

	reloaded, _ := db.GetAccount(database, account.AccountKey)
	if reloaded.UsageCount > limit {
		t.Errorf("usage count %d exceeds limit %d", reloaded.UsageCount, limit)
	}
	if reloaded.UsageCount != admittedCount {
		t.Errorf("usage count %d does not match admissions %d", reloaded.UsageCount, admittedCount)
	}
}

func TestWindowRolloverResetsCounter(t *testing.T) {
	database := newTestDB(t)
	account := seedAccount(t, database)
	tracker := NewTracker(database, 100, time.Hour)

	stale := time.Now().Add(-2 * time.Hour)
	database.Model(account).Updates(map[string]interface{}{
		"usage_count":  100,
		"window_start": stale,
	})

	decision, err := tracker.CheckAndReserve(account.AccountKey, 1)
	if err != nil {
		t.Fatalf("CheckAndReserve() after window expiry error = %v", err)
	}
	if !decision.Admitted || decision.Remaining != 99 {
		t.Errorf("decision = %+v, want fresh window with 99 remaining", decision)
	}

	reloaded, _ := db.GetAccount(database, account.AccountKey)
	if reloaded.UsageCount != 1 {
		t.Errorf("usage count after rollover = %d, want 1", reloaded.UsageCount)
	}
	if !reloaded.WindowStart.After(stale) {
		t.Error("windowStart must advance on rollover")
	}
}

func TestCheckAndReserveFailsClosedForUnknownAccount(t *testing.T) {
	database := newTestDB(t)
	tracker := NewTracker(database, 100, DefaultWindow)

	decision, err := tracker.CheckAndReserve("missing-account", 1)
	if err == nil {
		t.Fatal("CheckAndReserve(unknown account) should fail")
	}
	if decision.Admitted {
		t.Error("a failing quota check must never admit")
	}
}

func TestRemaining(t *testing.T) {
	database := newTestDB(t)
	account := seedAccount(t, database)
	tracker := NewTracker(database, 100, DefaultWindow)

	database.Model(account).Update("usage_count", 40)

	remaining, err := tracker.Remaining(account.AccountKey)
	if err != nil {
		t.Fatalf("Remaining() error = %v", err)
	}
	if remaining != 60 {
		t.Errorf("Remaining() = %d, want 60", remaining)
	}
}
