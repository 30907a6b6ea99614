package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/supervision/internal/app/dedupe"
	"github.com/yigit/supervision/internal/app/exporter"
	"github.com/yigit/supervision/internal/app/importer"
	appMigrations "github.com/yigit/supervision/internal/app/migrations"
	appRepos "github.com/yigit/supervision/internal/app/repositories"
	appServices "github.com/yigit/supervision/internal/app/services"
	"github.com/yigit/supervision/internal/config"
	"github.com/yigit/supervision/internal/db"
	"github.com/yigit/supervision/internal/pkg/logger"
)

// Dependencies holds everything a command needs
type Dependencies struct {
	Config            *config.Config
	Database          db.Database
	Tx                *appRepos.TxManager
	Engine            *dedupe.Engine
	Importer          *importer.Importer
	Exporter          *exporter.Exporter
	FeeService        appServices.FeeService
	DepartmentService appServices.DepartmentService
	Logger            zerolog.Logger
}

// Close releases the database
func (d *Dependencies) Close() {
	if d.Database != nil {
		d.Database.Close()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := logger.Get()
	lgr.Debug().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the configured database and applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (db.Database, error) {
	lgr.Debug().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")
	database, err := db.Open(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	if _, err := Migrate(ctx, database, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Migrate applies pending migrations and returns the files applied
func Migrate(ctx context.Context, database db.Database, lgr zerolog.Logger) ([]string, error) {
	migrator, err := appMigrations.NewMigrator(database, lgr)
	if err != nil {
		return nil, err
	}

	applied, err := migrator.Migrate(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	if len(applied) > 0 {
		lgr.Info().Strs("files", applied).Msg("Database migrations successfully applied.")
	}
	return applied, nil
}

// BuildDependencies wires repositories, the merge engine and services over database.
func BuildDependencies(cfg *config.Config, database db.Database, lgr zerolog.Logger) *Dependencies {
	tx := appRepos.NewTxManager(database)
	engine := dedupe.NewEngine(tx, lgr)

	return &Dependencies{
		Config:            cfg,
		Database:          database,
		Tx:                tx,
		Engine:            engine,
		Importer:          importer.NewImporter(tx, engine, lgr),
		Exporter:          exporter.NewExporter(tx, nil, lgr),
		FeeService:        appServices.NewFeeService(tx, nil, lgr),
		DepartmentService: appServices.NewDepartmentService(tx, lgr),
		Logger:            lgr,
	}
}

// Setup runs the full startup sequence used by every command.
func Setup(ctx context.Context, configPath string) (*Dependencies, error) {
	cfg, lgr, err := LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, err
	}

	database, err := SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}

	return BuildDependencies(cfg, database, lgr), nil
}
