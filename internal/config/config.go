package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where LoadConfig looks when no path is given
const DefaultPath = "configs/config.yaml"

// ColumnNames are the spreadsheet header names the importer looks for
type ColumnNames struct {
	Degree               string `yaml:"degree" env:"IMPORT_COL_DEGREE"`
	Name                 string `yaml:"name" env:"IMPORT_COL_NAME"`
	Title                string `yaml:"title" env:"IMPORT_COL_TITLE"`
	Supervisor           string `yaml:"supervisor" env:"IMPORT_COL_SUPERVISOR"`
	SupervisorDepartment string `yaml:"supervisor_department" env:"IMPORT_COL_SUPERVISOR_DEPT"`
	Status               string `yaml:"status" env:"IMPORT_COL_STATUS"`
	Kind                 string `yaml:"kind" env:"IMPORT_COL_KIND"`
}

// Config structure represents the application configuration
type Config struct {
	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		TxTimeout       string `yaml:"tx_timeout" env:"DB_TX_TIMEOUT"`
		Path            string `yaml:"path" env:"DB_PATH"` // SQLite file
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Import struct {
		Sheet       string      `yaml:"sheet" env:"IMPORT_SHEET"`
		MaxScanRows int         `yaml:"max_scan_rows" env:"IMPORT_MAX_SCAN_ROWS"`
		Columns     ColumnNames `yaml:"columns"`
	} `yaml:"import"`

	Export struct {
		StatusFilter string `yaml:"status_filter" env:"EXPORT_STATUS_FILTER"`
	} `yaml:"export"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// A .env next to the binary is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if configPath == "" {
		configPath = DefaultPath
	}

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "supervision"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 1
	config.Database.MaxOpenConns = 4
	config.Database.ConnMaxLifetime = "1h"
	config.Database.TxTimeout = "10m"
	config.Database.Path = "data/supervision.db"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "text"

	// Import defaults match the faculty's registration sheet
	config.Import.MaxScanRows = 30
	config.Import.Columns = ColumnNames{
		Degree:               "المرحلة",
		Name:                 "الإســـــــم",
		Title:                "العنـــــــــوان",
		Supervisor:           "المشرفين",
		SupervisorDepartment: "القسم",
		Status:               "الحالة",
		Kind:                 "النوع",
	}

	config.Export.StatusFilter = "active"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch strings.ToLower(config.Database.Driver) {
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid connection max lifetime format: %w", err)
		}
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if _, err := time.ParseDuration(config.Database.TxTimeout); err != nil {
		return fmt.Errorf("invalid transaction timeout format: %w", err)
	}

	if config.Import.MaxScanRows <= 0 {
		return fmt.Errorf("import max_scan_rows must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
