package db

import (
	"fmt"
	"strings"

	"github.com/yigit/supervision/internal/config"
)

// Open connects to the database selected by cfg.Database.Driver
func Open(cfg *config.Config) (Database, error) {
	switch Dialect(strings.ToLower(cfg.Database.Driver)) {
	case DialectPostgres:
		return NewPostgresDB(cfg)
	case DialectSQLite:
		return NewSQLiteDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
