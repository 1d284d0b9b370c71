package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Data backends.
const (
	BackendMemory = "memory"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Table names
	TransactionsSheet string
	CategoriesSheet   string
	RatesSheet        string

	// Google Sheets
	GoogleSpreadsheetID          string
	GoogleServiceAccountJSON     string
	GoogleServiceAccountFile     string
	GoogleApplicationCredentials string
	GoogleOAuthClientFile        string
	GoogleOAuthTokenFile         string
	GoogleOAuthClientJSON        string
	GoogleOAuthTokenJSON         string

	// Caches
	DataCacheTTL   time.Duration
	HeaderCacheTTL time.Duration
	RateCacheTTL   time.Duration

	// Rate providers
	FXPrimaryURL   string
	FXSecondaryURL string
	FXTimeout      time.Duration

	// AMQP mirror
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	SyncBatchSize    int
	SyncInterval     time.Duration
	RateWarmSchedule string

	CategoriesSeedFile string
	LogLevel           string
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		TransactionsSheet: getEnv("TRANSACTIONS_SHEET", "Transactions"),
		CategoriesSheet:   getEnv("CATEGORIES_SHEET", "Categories"),
		RatesSheet:        getEnv("RATES_SHEET", "Rates"),

		GoogleSpreadsheetID:          getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON:     getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:     getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleOAuthClientFile:        getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:         getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:        getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:         getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		DataCacheTTL:   getEnvDuration("DATA_CACHE_TTL", 15*time.Second),
		HeaderCacheTTL: getEnvDuration("HEADER_CACHE_TTL", 120*time.Second),
		RateCacheTTL:   getEnvDuration("RATE_CACHE_TTL", 5*time.Minute),

		FXPrimaryURL:   getEnv("FX_PRIMARY_URL", "https://api.frankfurter.app"),
		FXSecondaryURL: getEnv("FX_SECONDARY_URL", "https://open.er-api.com"),
		FXTimeout:      getEnvDuration("FX_TIMEOUT", 25*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sheet_ops"),

		SyncBatchSize:    getEnvInt("SYNC_BATCH_SIZE", 50),
		SyncInterval:     getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		RateWarmSchedule: getEnv("RATE_WARM_SCHEDULE", "30 0 * * *"),

		CategoriesSeedFile: getEnv("CATEGORIES_SEED_FILE", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// MirrorEnabled reports whether local writes are published for replay onto
// Google Sheets.
func (c *Config) MirrorEnabled() bool {
	return c.DataBackend == BackendSQLite && c.AMQPURL != ""
}

// HasGoogleCredentials reports whether any supported credential source is set:
// a service account, application default credentials, or an OAuth client
// with its token.
func (c *Config) HasGoogleCredentials() bool {
	if c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" || c.GoogleApplicationCredentials != "" {
		return true
	}
	hasClient := c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != ""
	hasToken := c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != ""
	return hasClient && hasToken
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSheets, BackendSQLite}
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

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	for key, name := range map[string]string{
		"TRANSACTIONS_SHEET": c.TransactionsSheet,
		"CATEGORIES_SHEET":   c.CategoriesSheet,
		"RATES_SHEET":        c.RatesSheet,
	} {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", key))
		}
	}
	if c.TransactionsSheet != "" && (c.TransactionsSheet == c.CategoriesSheet || c.TransactionsSheet == c.RatesSheet) ||
		c.CategoriesSheet != "" && c.CategoriesSheet == c.RatesSheet {
		errors = append(errors, "table names must be distinct")
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

	if c.DataBackend == BackendSheets {
		errors = append(errors, c.googleErrors()...)
	}

	for key, v := range map[string]string{"FX_PRIMARY_URL": c.FXPrimaryURL, "FX_SECONDARY_URL": c.FXSecondaryURL} {
		if u, err := url.Parse(v); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an http(s) URL", key, v))
		}
	}
	if c.FXTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid FX timeout %v: must be positive", c.FXTimeout))
	}

	for key, ttl := range map[string]time.Duration{
		"DATA_CACHE_TTL":   c.DataCacheTTL,
		"HEADER_CACHE_TTL": c.HeaderCacheTTL,
		"RATE_CACHE_TTL":   c.RateCacheTTL,
	} {
		if ttl <= 0 {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be positive", key, ttl))
		}
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.RateWarmSchedule != "" {
		if _, err := cron.ParseStandard(c.RateWarmSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid rate warm schedule '%s': %v", c.RateWarmSchedule, err))
		}
	}

	if c.CategoriesSeedFile != "" {
		if _, err := os.Stat(c.CategoriesSeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("categories seed file is not readable: %s", c.CategoriesSeedFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks what the mirror worker needs on top of Validate:
// a local database, a broker and a reachable spreadsheet.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLITE_DB_PATH is required for the mirror worker")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	}
	errors = append(errors, c.googleErrors()...)
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) googleErrors() []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
	}
	if !c.HasGoogleCredentials() {
		errors = append(errors, "Google credentials are required: set GOOGLE_SERVICE_ACCOUNT_JSON/_FILE, GOOGLE_APPLICATION_CREDENTIALS, or GOOGLE_OAUTH_CLIENT_* with GOOGLE_OAUTH_TOKEN_*")
	}
	for _, f := range []struct{ label, path string }{
		{"service account", c.GoogleServiceAccountFile},
		{"OAuth client", c.GoogleOAuthClientFile},
		{"OAuth token", c.GoogleOAuthTokenFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google %s file does not exist: %s", f.label, f.path))
		}
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
