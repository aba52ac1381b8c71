// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"testing"

	"github.com/ammar0144/movies4go/pkg/db"
)

// New returns a Manager over a private in-memory database with the given
// models migrated. The pool is pinned to one connection because every new
// SQLite memory connection starts empty.
func New(t testing.TB, models ...interface{}) *db.Manager {
	t.Helper()

	manager, err := db.NewManager(&db.Config{
		Driver:       db.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		Logging:      db.LoggingConfig{Level: "silent"},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })

	if len(models) > 0 {
		if err := manager.Migrate(models...); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return manager
}
