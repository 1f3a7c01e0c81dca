package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration. It is loaded once per process
// and passed explicitly to every component that needs it.
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Ledger databases
	DataDir   string
	ExportDir string
	Files     DatabaseFiles

	// Interest
	LoanInterestRate decimal.Decimal

	// Conversion
	LockTimeout    time.Duration
	LockRetryDelay time.Duration
	StatusFile     string

	// JWT / operator login
	JWTSecret            string
	JWTExpirationHours   int
	OperatorUsername     string
	OperatorPasswordHash string

	// Background Workers
	WorkerCount int

	// Caching
	HistoryCacheSize int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string
}

// DatabaseFiles names the five legacy database files inside DataDir
type DatabaseFiles struct {
	Ledger     string
	Members    string
	Active     string
	Inactive   string
	Liquidated string
}

// DefaultDatabaseFiles returns the file names used by the existing installation
func DefaultDatabaseFiles() DatabaseFiles {
	return DatabaseFiles{
		Ledger:     "DEPCRED.db",
		Members:    "MEMBRII.db",
		Active:     "activi.db",
		Inactive:   "INACTIVI.db",
		Liquidated: "LICHIDATI.db",
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DataDir:              getEnv("DATA_DIR", "./data"),
		ExportDir:            getEnv("EXPORT_DIR", "./exports"),
		Files:                DefaultDatabaseFiles(),
		LockTimeout:          getEnvAsDuration("LOCK_TIMEOUT", 3*time.Second),
		LockRetryDelay:       getEnvAsDuration("LOCK_RETRY_DELAY", 250*time.Millisecond),
		StatusFile:           getEnv("STATUS_FILE", "dual_currency.json"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTExpirationHours:   getEnvAsInt("JWT_EXPIRATION_HOURS", 12),
		OperatorUsername:     getEnv("OPERATOR_USERNAME", "admin"),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		HistoryCacheSize:     getEnvAsInt("HISTORY_CACHE_SIZE", 256),
		AllowedOrigins:       getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:            getEnv("SENTRY_DSN", ""),
	}

	rate, err := getEnvAsDecimal("LOAN_INTEREST_RATE", decimal.RequireFromString("0.004"))
	if err != nil {
		return nil, err
	}
	cfg.LoanInterestRate = rate

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	var problems []string

	if c.DataDir == "" {
		problems = append(problems, "DATA_DIR is required")
	}
	if !c.LoanInterestRate.IsPositive() || c.LoanInterestRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		problems = append(problems, "LOAN_INTEREST_RATE must be a fraction between 0 and 1")
	}
	if c.LockTimeout <= 0 || c.LockRetryDelay <= 0 {
		problems = append(problems, "LOCK_TIMEOUT and LOCK_RETRY_DELAY must be positive")
	}
	if c.WorkerCount < 1 {
		problems = append(problems, "WORKER_COUNT must be at least 1")
	}
	if c.JWTSecret == "" && c.Environment == "production" {
		problems = append(problems, "JWT_SECRET is required in production")
	}
	if c.OperatorPasswordHash == "" && c.Environment == "production" {
		problems = append(problems, "OPERATOR_PASSWORD_HASH is required in production")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Path resolves a file name inside the data directory
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration reads an environment variable as a Go duration ("2s", "500ms")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDecimal reads an environment variable as an exact decimal.
// A malformed monetary setting is an error rather than a silent default.
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(valueStr))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", key, err)
	}
	return value, nil
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
