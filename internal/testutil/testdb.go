// Package testutil provides throwaway migrated databases for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/yigit/supervision/internal/app/migrations"
	"github.com/yigit/supervision/internal/db"
	"github.com/yigit/supervision/internal/pkg/logger"
)

// NewSQLite opens a private in-memory SQLite database with every migration applied.
// The database is closed when the test ends.
func NewSQLite(t testing.TB) db.Database {
	t.Helper()

	database, err := db.OpenSQLite(db.MemoryPath, time.Minute)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(database.Close)

	migrator, err := migrations.NewMigrator(database, logger.Nop())
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if _, err := migrator.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}
