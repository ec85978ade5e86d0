// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"testing"

	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/config"
	"github.com/pigjjun/board/backend/internal/database"
)

// New returns a migrated in-memory SQLite database closed at test cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	svc, err := database.New(config.Database{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("could not open test database: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	return svc.GetDB()
}
