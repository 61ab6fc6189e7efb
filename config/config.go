package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"scratcher/database"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string `env:"DISCORD_TOKEN"`
	DiscordGuildID string `env:"DISCORD_GUILD_ID"`

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`
	Storage      string `env:"STORAGE" envDefault:"postgres"` // "postgres" or "memory"

	// Game catalog (YAML). Empty means the built-in catalog.
	CatalogPath string `env:"CATALOG_PATH"`

	// Settlement configuration
	NATSServers        string        `env:"NATS_SERVERS"`
	SettlementSubject  string        `env:"SETTLEMENT_SUBJECT" envDefault:"payments.requests"`
	CallbackSubject    string        `env:"SETTLEMENT_CALLBACK_SUBJECT" envDefault:"payments.callbacks"`
	SettlementStream   string        `env:"SETTLEMENT_STREAM" envDefault:"PAYMENTS"`
	SettlementDelay    time.Duration `env:"SETTLEMENT_DELAY" envDefault:"2s"`
	SettlementQueueLen int           `env:"SETTLEMENT_QUEUE_LEN" envDefault:"256"`

	// Wallet limits
	MinDeposit           decimal.Decimal `env:"MIN_DEPOSIT" envDefault:"10.00"`
	MaxDeposit           decimal.Decimal `env:"MAX_DEPOSIT" envDefault:"10000.00"`
	MinWithdrawal        decimal.Decimal `env:"MIN_WITHDRAWAL" envDefault:"20.00"`
	MaxWithdrawal        decimal.Decimal `env:"MAX_WITHDRAWAL" envDefault:"50000.00"`
	DailyWithdrawalLimit decimal.Decimal `env:"DAILY_WITHDRAWAL_LIMIT" envDefault:"5000.00"`

	// Ops HTTP (metrics, health). Empty disables it.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON"`

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

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
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

// load reads an optional .env file and then the process environment
func load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required settings and limit ordering
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	if c.MinDeposit.GreaterThan(c.MaxDeposit) {
		return fmt.Errorf("MIN_DEPOSIT %s exceeds MAX_DEPOSIT %s", c.MinDeposit, c.MaxDeposit)
	}
	if c.MinWithdrawal.GreaterThan(c.MaxWithdrawal) {
		return fmt.Errorf("MIN_WITHDRAWAL %s exceeds MAX_WITHDRAWAL %s", c.MinWithdrawal, c.MaxWithdrawal)
	}

	if c.Environment != "test" {
		if c.DiscordToken == "" {
			return fmt.Errorf("DISCORD_TOKEN is required")
		}
		if c.Storage == StoragePostgres && c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
			return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
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
		Environment:          "test",
		Storage:              StorageMemory,
		SettlementSubject:    "payments.requests",
		CallbackSubject:      "payments.callbacks",
		SettlementStream:     "PAYMENTS",
		SettlementQueueLen:   16,
		MinDeposit:           decimal.NewFromInt(10),
		MaxDeposit:           decimal.NewFromInt(10000),
		MinWithdrawal:        decimal.NewFromInt(20),
		MaxWithdrawal:        decimal.NewFromInt(50000),
		DailyWithdrawalLimit: decimal.NewFromInt(5000),
		LogLevel:             "debug",
	}
}
