package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"saldo/internal/aggregate"
)

type Config struct {
	// HTTP Server
	Port               string `koanf:"PORT"`
	RateLimitPerMinute int    `koanf:"RATE_LIMIT_PER_MINUTE"`

	// Backend selection
	DataBackend        string `koanf:"DATA_BACKEND"`
	SQLiteDBPath       string `koanf:"SQLITE_DB_PATH"`
	MemorySnapshotPath string `koanf:"MEMORY_SNAPSHOT_PATH"`
	DatabaseURL        string `koanf:"DATABASE_URL"`

	// AMQP
	AMQPURL      string `koanf:"AMQP_URL"`
	AMQPExchange string `koanf:"AMQP_EXCHANGE"`
	AMQPQueue    string `koanf:"AMQP_QUEUE"`

	// Google Sheets export
	GoogleSpreadsheetID      string `koanf:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `koanf:"GOOGLE_SHEET_NAME"`
	GoogleServiceAccountFile string `koanf:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `koanf:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// Sheets worker; zero disables the periodic store-to-sheet reconcile
	ReconcileInterval time.Duration `koanf:"RECONCILE_INTERVAL"`

	// Logging
	LogLevel  string `koanf:"LOG_LEVEL"`
	LogFormat string `koanf:"LOG_FORMAT"`

	// Aggregation and caching
	RecurrenceProjection string        `koanf:"RECURRENCE_PROJECTION"`
	CategoryCacheTTL     time.Duration `koanf:"CATEGORY_CACHE_TTL"`
}

// Defaults returns the configuration used when no variable is set.
func Defaults() Config {
	return Config{
		Port:                 "8081",
		RateLimitPerMinute:   60,
		DataBackend:          "memory",
		SQLiteDBPath:         "./data/saldo.db",
		AMQPExchange:         "saldo",
		AMQPQueue:            "transaction_events",
		GoogleSheetName:      "Transactions",
		LogLevel:             "INFO",
		LogFormat:            "text",
		RecurrenceProjection: "anchor",
		CategoryCacheTTL:     5 * time.Minute,
	}
}

// Load reads the configuration from the environment. Variables that are set
// but empty keep their default.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	var loaded Config
	if err := k.UnmarshalWithConf("", &loaded, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg := Defaults()
	cfg.merge(loaded)
	return &cfg, nil
}

func (c *Config) merge(o Config) {
	setString := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString(&c.Port, o.Port)
	setString(&c.DataBackend, o.DataBackend)
	setString(&c.SQLiteDBPath, o.SQLiteDBPath)
	setString(&c.MemorySnapshotPath, o.MemorySnapshotPath)
	setString(&c.DatabaseURL, o.DatabaseURL)
	setString(&c.AMQPURL, o.AMQPURL)
	setString(&c.AMQPExchange, o.AMQPExchange)
	setString(&c.AMQPQueue, o.AMQPQueue)
	setString(&c.GoogleSpreadsheetID, o.GoogleSpreadsheetID)
	setString(&c.GoogleSheetName, o.GoogleSheetName)
	setString(&c.GoogleServiceAccountFile, o.GoogleServiceAccountFile)
	setString(&c.GoogleServiceAccountJSON, o.GoogleServiceAccountJSON)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	setString(&c.RecurrenceProjection, o.RecurrenceProjection)
	if o.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = o.RateLimitPerMinute
	}
	if o.ReconcileInterval != 0 {
		c.ReconcileInterval = o.ReconcileInterval
	}
	if o.CategoryCacheTTL != 0 {
		c.CategoryCacheTTL = o.CategoryCacheTTL
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DataBackend == "postgres" {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if _, err := aggregate.ParseProjection(c.RecurrenceProjection); err != nil {
		errors = append(errors, fmt.Sprintf("invalid RECURRENCE_PROJECTION '%s': must be 'anchor' or 'forward'", c.RecurrenceProjection))
	}

	if c.CategoryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must be at least 1 second", c.CategoryCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateSheetsExport checks the settings the sheets worker needs on top of
// Validate.
func (c *Config) ValidateSheetsExport() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sheets worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sheets worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME is required for the sheets worker")
	}
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided")
	}
	if c.ReconcileInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid RECONCILE_INTERVAL %v: must not be negative", c.ReconcileInterval))
	}
	if len(errors) > 0 {
		return fmt.Errorf("sheets worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Projection returns the parsed RECURRENCE_PROJECTION.
func (c *Config) Projection() aggregate.Projection {
	p, _ := aggregate.ParseProjection(c.RecurrenceProjection)
	return p
}
