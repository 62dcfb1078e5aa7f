package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Odds feed configuration
	OddsAPIKey  string
	OddsBaseURL string

	// NATS configuration
	NATSURL     string
	NATSEnabled bool

	// Ledger settings
	StartingBalance decimal.Decimal
	MaxActiveWagers int
	MaxWagerLegs    int

	// Settlement poller
	SettlePollSports   []string
	SettleLookbackDays int
	SettlePollInterval time.Duration

	// Metrics listener, empty disables it
	MetricsAddr string

	// Environment
	Environment string // "development", "production", or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, with .env as a fallback
func load() (*Config, error) {
	// Missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		OddsAPIKey:  os.Getenv("ODDS_API_KEY"),
		OddsBaseURL: os.Getenv("ODDS_BASE_URL"),

		NATSURL:     os.Getenv("NATS_URL"),
		NATSEnabled: os.Getenv("NATS_ENABLED") == "true",

		StartingBalance: decimal.NewFromInt(500),
		MaxActiveWagers: 20,
		MaxWagerLegs:    10,

		SettleLookbackDays: 1,
		SettlePollInterval: 5 * time.Minute,

		MetricsAddr: os.Getenv("METRICS_ADDR"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		parsed, err := decimal.NewFromString(balance)
		if err != nil || parsed.Sign() <= 0 {
			return nil, fmt.Errorf("STARTING_BALANCE must be a positive amount, got %q", balance)
		}
		config.StartingBalance = parsed
	}
	if limit := os.Getenv("MAX_ACTIVE_WAGERS"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			config.MaxActiveWagers = parsed
		}
	}
	if legs := os.Getenv("MAX_WAGER_LEGS"); legs != "" {
		if parsed, err := strconv.Atoi(legs); err == nil {
			config.MaxWagerLegs = parsed
		}
	}
	if days := os.Getenv("SETTLE_LOOKBACK_DAYS"); days != "" {
		if parsed, err := strconv.Atoi(days); err == nil && parsed >= 1 && parsed <= 3 {
			config.SettleLookbackDays = parsed
		}
	}
	if interval := os.Getenv("SETTLE_POLL_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil && parsed > 0 {
			config.SettlePollInterval = parsed
		}
	}
	if sports := os.Getenv("SETTLE_POLL_SPORTS"); sports != "" {
		for _, key := range strings.Split(sports, ",") {
			if key = strings.TrimSpace(key); key != "" {
				config.SettlePollSports = append(config.SettlePollSports, key)
			}
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.OddsAPIKey == "" {
			return nil, fmt.Errorf("ODDS_API_KEY is required")
		}
	}

	return config, nil
}
