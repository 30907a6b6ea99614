package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yigit/supervision/internal/config"
	"github.com/yigit/supervision/internal/pkg/helpers"
	"github.com/yigit/supervision/internal/pkg/logger"

	_ "modernc.org/sqlite"
)

const defaultTxTimeout = 10 * time.Minute

// MemoryPath opens a private in-memory SQLite database
const MemoryPath = ":memory:"

// SQLiteDB is a single-connection SQLite database used for local runs and tests
type SQLiteDB struct {
	DB        *sql.DB
	txTimeout time.Duration
}

// NewSQLiteDB opens (creating if needed) the SQLite file named by the config
func NewSQLiteDB(cfg *config.Config) (*SQLiteDB, error) {
	return OpenSQLite(cfg.Database.Path, helpers.ParseDuration(cfg.Database.TxTimeout, defaultTxTimeout))
}

// OpenSQLite opens the SQLite database at path. Use MemoryPath for a throwaway database.
func OpenSQLite(path string, txTimeout time.Duration) (*SQLiteDB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One connection: SQLite has a single writer and an in-memory database
	// lives only as long as its connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &SQLiteDB{DB: conn, txTimeout: txTimeout}, nil
}

// Dialect reports the SQL flavour of this database
func (db *SQLiteDB) Dialect() Dialect {
	return DialectSQLite
}

// Querier returns a non-transactional query surface. Do not use it while a
// transaction is open: the only connection is held by the transaction.
func (db *SQLiteDB) Querier() DBTX {
	return NewSQLQuerier(db.DB)
}

// Close closes the database
func (db *SQLiteDB) Close() {
	if db.DB != nil {
		if err := db.DB.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close sqlite database")
		}
	}
}

// WithTransaction runs a function within a transaction
func (db *SQLiteDB) WithTransaction(ctx context.Context, fn TransactionFn) error {
	_, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, db.txTimeout)
		defer cancel()
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, NewSQLQuerier(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
