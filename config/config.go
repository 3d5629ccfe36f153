package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"shogun/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL             string
	DatabaseName            string
	DatabaseTimezone        string // Session timezone of pooled connections
	DatabaseMaxConns        int    // 0 keeps the pgxpool default
	DatabaseMinConns        int
	DatabaseMaxConnLifetime time.Duration
	DatabaseMaxConnIdleTime time.Duration

	// HTTP configuration
	HTTPAddr string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)
	NATSEnabled bool

	// Accrual configuration
	BusinessTimezone     string // IANA zone used to decide business days
	AccrualWorkerEnabled bool
	AccrualHour          int // Hour in the business timezone when the accrual worker fires (0-23)

	// Claim configuration
	ClaimRejectRestoresAccrual bool // Return reserved yield to positions when a claim is rejected

	// Policy catalogue (rank tiers, fees, templates); empty means the embedded default
	CatalogFile string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// PoolOptions returns the connection pool settings for database.NewConnection
func (c *Config) PoolOptions() database.PoolOptions {
	return database.PoolOptions{
		Timezone:        c.DatabaseTimezone,
		MaxConns:        int32(c.DatabaseMaxConns),
		MinConns:        int32(c.DatabaseMinConns),
		MaxConnLifetime: c.DatabaseMaxConnLifetime,
		MaxConnIdleTime: c.DatabaseMaxConnIdleTime,
	}
}

// Location resolves the business timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	if c.BusinessTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		DatabaseName:            os.Getenv("DATABASE_NAME"),
		DatabaseTimezone:        getEnvWithDefault("DATABASE_TIMEZONE", "UTC"),
		DatabaseMaxConns:        getEnvInt("DATABASE_MAX_CONNS", 0),
		DatabaseMinConns:        getEnvInt("DATABASE_MIN_CONNS", 0),
		DatabaseMaxConnLifetime: getEnvDuration("DATABASE_MAX_CONN_LIFETIME", time.Hour),
		DatabaseMaxConnIdleTime: getEnvDuration("DATABASE_MAX_CONN_IDLE_TIME", 30*time.Minute),

		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),
		NATSEnabled: getEnvBool("NATS_ENABLED", false),

		BusinessTimezone:     getEnvWithDefault("BUSINESS_TIMEZONE", "Asia/Tokyo"),
		AccrualWorkerEnabled: getEnvBool("ACCRUAL_WORKER_ENABLED", false),
		AccrualHour:          getEnvInt("ACCRUAL_HOUR", 9),

		ClaimRejectRestoresAccrual: getEnvBool("CLAIM_REJECT_RESTORES_ACCRUAL", true),

		CatalogFile: os.Getenv("CATALOG_FILE"),

		OTelEnabled:              getEnvBool("OTEL_ENABLED", false),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "shogun-engine"),
		OTelExportIntervalMillis: getEnvInt("OTEL_EXPORT_INTERVAL_MS", 60000),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if config.DatabaseMaxConns < 0 || config.DatabaseMinConns < 0 {
		return nil, fmt.Errorf("DATABASE_MAX_CONNS and DATABASE_MIN_CONNS cannot be negative")
	}
	if config.DatabaseMaxConns > 0 && config.DatabaseMinConns > config.DatabaseMaxConns {
		return nil, fmt.Errorf("DATABASE_MIN_CONNS (%d) exceeds DATABASE_MAX_CONNS (%d)", config.DatabaseMinConns, config.DatabaseMaxConns)
	}
	if _, err := time.LoadLocation(config.DatabaseTimezone); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_TIMEZONE %q: %w", config.DatabaseTimezone, err)
	}
	if config.AccrualHour < 0 || config.AccrualHour > 23 {
		return nil, fmt.Errorf("ACCRUAL_HOUR must be between 0 and 23, got %d", config.AccrualHour)
	}
	if _, err := time.LoadLocation(config.BusinessTimezone); err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", config.BusinessTimezone, err)
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:                "test",
		HTTPAddr:                   ":0",
		DatabaseTimezone:           "UTC",
		BusinessTimezone:           "Asia/Tokyo",
		AccrualHour:                9,
		ClaimRejectRestoresAccrual: true,
		OTelExporterType:           "none",
		LogLevel:                   "debug",
	}
}
