// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"club-platform/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated SQLite database in a temp dir. A single
// connection serializes every transaction, and SQLite ignores FOR UPDATE,
// so tests on it cannot observe locking.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewUser inserts a user with the given display name and XP.
func NewUser(t testing.TB, db *gorm.DB, name string, xp int64) *models.User {
	t.Helper()
	u := &models.User{
		ID:          uuid.NewString(),
		ExternalID:  "ext-" + name,
		DisplayName: name,
		Email:       name + "@club.test",
		Role:        models.RoleStudent,
		XP:          xp,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// NewEvent inserts a live event with the given max team size and domains.
func NewEvent(t testing.TB, db *gorm.DB, slug string, maxTeamSize int, domains ...string) *models.Event {
	t.Helper()
	e := &models.Event{
		ID:          uuid.NewString(),
		Title:       slug,
		Slug:        slug,
		Type:        models.EventTypeHackathon,
		Status:      models.EventStatusLive,
		MaxTeamSize: maxTeamSize,
	}
	if len(domains) > 0 {
		e.Type = models.EventTypeMentorship
	}
	if err := e.SetDomains(domains); err != nil {
		t.Fatalf("domains: %v", err)
	}
	if err := e.SetFields(nil); err != nil {
		t.Fatalf("fields: %v", err)
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("create event %s: %v", slug, err)
	}
	return e
}
