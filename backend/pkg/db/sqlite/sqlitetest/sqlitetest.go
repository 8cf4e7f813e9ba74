// Package sqlitetest opens throwaway migrated databases for tests.
package sqlitetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"microblog/backend/pkg/db/sqlite"
)

// Open returns a freshly migrated database that is closed when the test ends.
func Open(tb testing.TB) *sql.DB {
	tb.Helper()

	sqlDB, err := sqlite.Connect(filepath.Join(tb.TempDir(), "microblog.db"))
	if err != nil {
		tb.Fatalf("connect test database: %v", err)
	}
	tb.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}
