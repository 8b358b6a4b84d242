// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fxchain/internal/rates"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Known source names for chain.sources.
var knownSources = map[string]struct{}{
	"cache_only":        {},
	"ecb":               {},
	"frankfurter":       {},
	"exchangerate_host": {},
	"snapshot":          {},
}

// Config holds the complete application configuration.
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	Cache            CacheConfig
	Chain            ChainConfig
	ECB              ECBConfig              `mapstructure:"ecb"`
	ExchangeRateHost ExchangeRateHostConfig `mapstructure:"exchangerate_host"`
	Frankfurter      FrankfurterConfig      `mapstructure:"frankfurter"`
	Worker           WorkerConfig
	Kafka            KafkaConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeSwagger  bool `mapstructure:"serve_swagger"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for Asynq task queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for the rate cache (required with the redis backend).
}

// CacheConfig holds rate cache settings.
type CacheConfig struct {
	Backend           string `mapstructure:"backend"`
	TTLSec            int    `mapstructure:"ttl_sec"`
	ScanIntervalMs    int    `mapstructure:"scan_interval_ms"`
	CanonicalCurrency string `mapstructure:"canonical_currency"`
	Key               string `mapstructure:"key"`
}

// ChainConfig lists the rate sources in priority order.
type ChainConfig struct {
	Sources []string `mapstructure:"sources"`
}

// ECBConfig holds settings for the European Central Bank feed.
type ECBConfig struct {
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// ExchangeRateHostConfig holds settings for the exchangerate.host provider.
type ExchangeRateHostConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// FrankfurterConfig holds settings for the frankfurter provider.
type FrankfurterConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// WorkerConfig holds background refresh and task queue settings.
type WorkerConfig struct {
	Concurrency     int      `mapstructure:"concurrency"`
	MaxRetry        int      `mapstructure:"max_retry"`
	TimeoutSec      int      `mapstructure:"timeout_sec"`
	RefreshCron     string   `mapstructure:"refresh_cron"`
	WatchCurrencies []string `mapstructure:"watch_currencies"`
}

// KafkaConfig holds event publishing settings. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Config search paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("./internal/config")

	viper.SetEnvPrefix("FXCHAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.serve_swagger", true)
	viper.SetDefault("server.serve_asynqmon", true)
	viper.SetDefault("database.host", "db")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "fxchain")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime_sec", 300)
	viper.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	viper.SetDefault("redis.cache_addr", "redis_cache:6381")
	viper.SetDefault("cache.backend", CacheBackendRedis)
	viper.SetDefault("cache.ttl_sec", 12*60*60)
	viper.SetDefault("cache.scan_interval_ms", 1000)
	viper.SetDefault("cache.canonical_currency", "EUR")
	viper.SetDefault("cache.key", "fxchain:rates:{canonical}")
	viper.SetDefault("chain.sources", []string{"ecb", "frankfurter", "exchangerate_host", "snapshot"})
	viper.SetDefault("ecb.url", "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml")
	viper.SetDefault("ecb.timeout_sec", 5)
	viper.SetDefault("exchangerate_host.base_url", "https://api.exchangerate.host")
	viper.SetDefault("exchangerate_host.api_key", "")
	viper.SetDefault("exchangerate_host.timeout_sec", 5)
	viper.SetDefault("frankfurter.base_url", "https://api.frankfurter.dev/v1")
	viper.SetDefault("frankfurter.timeout_sec", 5)
	viper.SetDefault("worker.concurrency", 1)
	viper.SetDefault("worker.max_retry", 3)
	viper.SetDefault("worker.timeout_sec", 30)
	viper.SetDefault("worker.refresh_cron", "@every 1h")
	viper.SetDefault("worker.watch_currencies", []string{"USD", "GBP", "JPY", "CHF"})
	viper.SetDefault("kafka.brokers", []string{})
	viper.SetDefault("kafka.topic", "rates.refreshed")
}

func (c *Config) normalize() {
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeSec <= 0 {
		c.Database.ConnMaxLifetimeSec = 300
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Cache.CanonicalCurrency = strings.ToUpper(strings.TrimSpace(c.Cache.CanonicalCurrency))
	for i, s := range c.Chain.Sources {
		c.Chain.Sources[i] = strings.ToLower(strings.TrimSpace(s))
	}
	for i, s := range c.Worker.WatchCurrencies {
		c.Worker.WatchCurrencies[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set FXCHAIN_REDIS_ASYNQ_ADDR)"))
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Redis.CacheAddr == "" {
			errs = append(errs, fmt.Errorf("redis.cache_addr is required for the redis cache backend (set FXCHAIN_REDIS_CACHE_ADDR)"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be %q or %q, got %q", CacheBackendMemory, CacheBackendRedis, c.Cache.Backend))
	}
	if c.Cache.TTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_sec must be positive, got %d", c.Cache.TTLSec))
	}
	if c.Cache.ScanIntervalMs < 0 {
		errs = append(errs, fmt.Errorf("cache.scan_interval_ms must be non-negative, got %d", c.Cache.ScanIntervalMs))
	}
	if !rates.IsValidCurrencyCode(c.Cache.CanonicalCurrency) {
		errs = append(errs, fmt.Errorf("cache.canonical_currency must be a 3-letter code, got %q", c.Cache.CanonicalCurrency))
	}

	if len(c.Chain.Sources) == 0 {
		errs = append(errs, fmt.Errorf("chain.sources must list at least one source"))
	}
	live := false
	for _, s := range c.Chain.Sources {
		if _, ok := knownSources[s]; !ok {
			errs = append(errs, fmt.Errorf("chain.sources: unknown source %q", s))
			continue
		}
		if s != "cache_only" {
			live = true
		}
	}
	if len(c.Chain.Sources) > 0 && !live {
		errs = append(errs, fmt.Errorf("chain.sources must contain a source that is not cache-only"))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	for _, cur := range c.Worker.WatchCurrencies {
		if !rates.IsValidCurrencyCode(cur) {
			errs = append(errs, fmt.Errorf("worker.watch_currencies: invalid currency %q", cur))
		}
	}

	return errors.Join(errs...)
}
