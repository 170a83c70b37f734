package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"lotto/database"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = database.DriverPostgres
	DriverSQLite   = database.DriverSQLite
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	DatabaseName   string        `env:"DATABASE_NAME"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"./data/scratch.db"`
	LockTimeout    time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"` // Bounded wait for the play transaction scope

	// Lottery configuration
	MaxDailyAttempts int    `env:"LOTTO_MAX_DAILY_ATTEMPTS" envDefault:"10"`
	Outcomes         string `env:"LOTTO_OUTCOMES" envDefault:"loss:50,refund:20,double:10:2,transfer:19,jackpot:1:10"`
	CurrencyName     string `env:"LOTTO_CURRENCY" envDefault:"coins"`

	// Discord configuration
	DiscordToken   string `env:"DISCORD_TOKEN"`
	DiscordGuildID string `env:"DISCORD_GUILD_ID"`

	// NATS configuration
	NATSServers string `env:"NATS_SERVERS"` // NATS server addresses (comma-separated), empty disables forwarding

	// HTTP configuration
	HTTPAddr        string   `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPJWTSecret   string   `env:"HTTP_JWT_SECRET"` // empty leaves the per-user routes unauthenticated
	HTTPCORSOrigins []string `env:"HTTP_CORS_ORIGINS" envDefault:"*" envSeparator:","`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
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

// Load parses configuration from the environment without touching the global instance
func Load() (*Config, error) {
	return load()
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// MigrationTarget returns the database the migrate command operates on
func (c *Config) MigrationTarget() database.MigrationTarget {
	if c.DatabaseDriver == DriverSQLite {
		return database.MigrationTarget{Driver: DriverSQLite, DSN: c.SQLitePath}
	}
	return database.MigrationTarget{Driver: DriverPostgres, DSN: c.GetDatabaseURL()}
}

// DiscordEnabled reports whether the Discord adapter should be started
func (c *Config) DiscordEnabled() bool {
	return strings.TrimSpace(c.DiscordToken) != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.DatabaseDriver = strings.ToLower(strings.TrimSpace(config.DatabaseDriver))

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" && c.Environment != "test" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.MaxDailyAttempts <= 0 {
		return fmt.Errorf("LOTTO_MAX_DAILY_ATTEMPTS must be positive, got %d", c.MaxDailyAttempts)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive, got %s", c.LockTimeout)
	}
	// If DatabaseName is provided, ensure it's not empty
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}

	return nil
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
		DatabaseDriver:   DriverSQLite,
		SQLitePath:       "lotto_test.db",
		LockTimeout:      5 * time.Second,
		MaxDailyAttempts: 10,
		Outcomes:         "loss:50,refund:20,double:10:2,transfer:19,jackpot:1:10",
		CurrencyName:     "coins",
		HTTPAddr:         ":0",
		HTTPCORSOrigins:  []string{"*"},
		LogLevel:         "debug",
		Environment:      "test",
	}
}
