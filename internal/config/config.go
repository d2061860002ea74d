package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Storage drivers understood by the application.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Price sources understood by the application.
const (
	PriceSourceYahoo  = "yahoo"
	PriceSourceStatic = "static"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Pricing   PricingConfig
	Trading   TradingConfig
	Scheduler SchedulerConfig
	Log       LogConfig
	CORS      CORSConfig
	Security  SecurityConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// StorageConfig selects where the ledger snapshot is persisted.
type StorageConfig struct {
	Driver        string // json, sqlite or memory
	Path          string // ledger file (json) or database file (sqlite)
	EncryptionKey string // optional Fernet key, json driver only
}

// PricingConfig selects and tunes the market data source.
type PricingConfig struct {
	Source      string
	CacheTTL    time.Duration // zero disables caching
	HistoryDays int
	StaticFile  string // optional JSON price file for the static source
}

// TradingConfig holds order execution settings.
type TradingConfig struct {
	DefaultCash  decimal.Decimal // cash seeded when an account is opened
	PriceTimeout time.Duration   // bound on a live quote fetch
}

// SchedulerConfig holds cron schedules for background jobs.
type SchedulerConfig struct {
	FlushRetrySchedule string // empty disables the job
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	InternalAPIKey string // empty leaves write endpoints unauthenticated
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	defaultCash, err := getEnvAsDecimal("TRADING_DEFAULT_CASH", decimal.NewFromInt(10000))
	if err != nil {
		return nil, err
	}
	priceTimeout, err := getEnvAsDuration("TRADING_PRICE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvAsDuration("PRICE_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}
	historyDays, err := getEnvAsInt("PRICE_HISTORY_DAYS", 365)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", StorageJSON)),
			Path:          getEnv("STORAGE_PATH", "./data/ledger.json"),
			EncryptionKey: getEnv("STORAGE_ENCRYPTION_KEY", ""),
		},
		Pricing: PricingConfig{
			Source:      strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceYahoo)),
			CacheTTL:    cacheTTL,
			HistoryDays: historyDays,
			StaticFile:  getEnv("PRICE_STATIC_FILE", ""),
		},
		Trading: TradingConfig{
			DefaultCash:  defaultCash,
			PriceTimeout: priceTimeout,
		},
		Scheduler: SchedulerConfig{
			FlushRetrySchedule: getEnv("FLUSH_RETRY_SCHEDULE", "@every 30s"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Security: SecurityConfig{
			InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageJSON, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: must be json, sqlite or memory", c.Storage.Driver)
	}
	if c.Storage.EncryptionKey != "" && c.Storage.Driver != StorageJSON {
		return fmt.Errorf("STORAGE_ENCRYPTION_KEY is only supported by the json storage driver")
	}
	switch c.Pricing.Source {
	case PriceSourceYahoo, PriceSourceStatic:
	default:
		return fmt.Errorf("invalid PRICE_SOURCE %q: must be yahoo or static", c.Pricing.Source)
	}
	if c.Trading.DefaultCash.IsNegative() {
		return fmt.Errorf("TRADING_DEFAULT_CASH cannot be negative")
	}
	if c.Pricing.HistoryDays <= 0 {
		return fmt.Errorf("PRICE_HISTORY_DAYS must be positive")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
