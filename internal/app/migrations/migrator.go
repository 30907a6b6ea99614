package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/db"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationFiles embed.FS

// Migrator manages database migrations
type Migrator struct {
	db     db.Database
	files  fs.FS
	sb     squirrel.StatementBuilderType
	logger zerolog.Logger
}

// NewMigrator creates a migrator using the embedded scripts for the database's dialect
func NewMigrator(database db.Database, lgr zerolog.Logger) (*Migrator, error) {
	files, err := fs.Sub(migrationFiles, string(database.Dialect()))
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %s: %w", database.Dialect(), err)
	}
	return NewMigratorFS(database, files, lgr), nil
}

// NewMigratorFS creates a migrator over an arbitrary directory of .sql files
func NewMigratorFS(database db.Database, files fs.FS, lgr zerolog.Logger) *Migrator {
	return &Migrator{
		db:     database,
		files:  files,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(database.Dialect().Placeholder()),
		logger: lgr,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	);`

	if _, err := m.db.Querier().Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	query, args, err := m.sb.Select("COUNT(*)").From("schema_migrations").Where(squirrel.Eq{"version": version}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build migration status query: %w", err)
	}

	var count int
	if err := m.db.Querier().QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return count > 0, nil
}

// Versions lists the migration files in apply order
func (m *Migrator) Versions() ([]string, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)
	return sqlFiles, nil
}

// Migrate applies every pending migration in order and returns the files applied
func (m *Migrator) Migrate(ctx context.Context) ([]string, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return nil, err
	}

	files, err := m.Versions()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, file := range files {
		ok, err := m.migrateFile(ctx, file)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, file)
		}
	}
	return applied, nil
}

// migrateFile executes one migration file and records it, in a single transaction
func (m *Migrator) migrateFile(ctx context.Context, file string) (bool, error) {
	// "001_init.sql" => "001"
	version := strings.Split(path.Base(file), "_")[0]

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return false, err
	}
	if applied {
		m.logger.Debug().Str("file", file).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := fs.ReadFile(m.files, file)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	record, args, err := m.sb.Insert("schema_migrations").
		Columns("version", "applied_at").
		Values(version, time.Now().UTC()).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build migration record query: %w", err)
	}

	err = m.db.WithTransaction(ctx, func(ctx context.Context, q db.DBTX) error {
		if _, err := q.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration %s: %w", file, err)
		}
		if _, err := q.Exec(ctx, record, args...); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	m.logger.Info().Str("file", file).Msg("Migration applied")
	return true, nil
}
