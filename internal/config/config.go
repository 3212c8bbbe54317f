package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig            `mapstructure:"http"`
	Log        LogConfig             `mapstructure:"log"`
	Auth       AuthConfig            `mapstructure:"auth"`
	Tiers      map[string]TierConfig `mapstructure:"tiers"`
	RateLimit  RateLimitConfig       `mapstructure:"rate_limit"`
	Delay      DelayConfig           `mapstructure:"delay"`
	Inventory  InventoryConfig       `mapstructure:"inventory"`
	MySQL      DatabaseConfig        `mapstructure:"mysql"`
	Postgres   DatabaseConfig        `mapstructure:"postgres"`
	SQLite     DatabaseConfig        `mapstructure:"sqlite"`
	ClickHouse DatabaseConfig        `mapstructure:"clickhouse"`
	Redis      RedisConfig           `mapstructure:"redis"`
	Kafka      KafkaConfig           `mapstructure:"kafka"`
	Usage      UsageConfig           `mapstructure:"usage"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json|console
}

type AuthConfig struct {
	Secret          string           `mapstructure:"secret"`
	TokenTTL        time.Duration    `mapstructure:"token_ttl"`
	CustomersSource string           `mapstructure:"customers_source"` // static|database
	Customers       []model.Customer `mapstructure:"customers"`
}

type TierConfig struct {
	RateLimit int `mapstructure:"rate_limit"`
	Priority  int `mapstructure:"priority"`
}

type RateLimitConfig struct {
	Backend         string        `mapstructure:"backend"` // memory|redis
	KeyPrefix       string        `mapstructure:"key_prefix"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	FailThreshold int           `mapstructure:"fail_threshold"`
	OpenFor       time.Duration `mapstructure:"open_for"`
}

type DelayConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Standard   time.Duration `mapstructure:"standard"`
	Premium    time.Duration `mapstructure:"premium"`
	Enterprise time.Duration `mapstructure:"enterprise"`
	Peak       PeakConfig    `mapstructure:"peak"`
}

type PeakConfig struct {
	StartHour   int           `mapstructure:"start_hour"`
	EndHour     int           `mapstructure:"end_hour"`
	Probability float64       `mapstructure:"probability"`
	Extra       time.Duration `mapstructure:"extra"`
}

type InventoryConfig struct {
	Backend         string     `mapstructure:"backend"` // synthetic|mysql|postgres|sqlite
	SampleSize      int        `mapstructure:"sample_size"`
	Seed            uint64     `mapstructure:"seed"`
	DefaultPageSize int        `mapstructure:"default_page_size"`
	MaxPageSize     int        `mapstructure:"max_page_size"`
	Pool            PoolConfig `mapstructure:"pool"`
}

type PoolConfig struct {
	MaxConns       int           `mapstructure:"max_conns"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	HoldLatency    time.Duration `mapstructure:"hold_latency"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	PoolSize    int           `mapstructure:"pool_size"`
}

type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	Topic          string        `mapstructure:"topic"`
	GroupID        string        `mapstructure:"group_id"`
	MinBytes       int           `mapstructure:"min_bytes"`
	MaxBytes       int           `mapstructure:"max_bytes"`
	CommitInterval int           `mapstructure:"commit_interval_ms"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

type UsageConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Buffer    int           `mapstructure:"buffer"`
	BatchSize int           `mapstructure:"batch_size"`
	BatchWait time.Duration `mapstructure:"batch_wait"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (INVSIM_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("merge %s: %w", path, err)
		}
	}

	// env override (INVSIM_*), e.g. INVSIM_RATE_LIMIT_BACKEND=redis
	v.SetEnvPrefix("INVSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret must not be empty")
	}
	switch c.Auth.CustomersSource {
	case "static", "database":
	default:
		return fmt.Errorf("auth.customers_source: unknown value %q", c.Auth.CustomersSource)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("rate_limit.backend: unknown value %q", c.RateLimit.Backend)
	}
	switch c.Inventory.Backend {
	case "synthetic", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("inventory.backend: unknown value %q", c.Inventory.Backend)
	}
	if c.Inventory.DefaultPageSize < 1 || c.Inventory.MaxPageSize < c.Inventory.DefaultPageSize {
		return fmt.Errorf("inventory: default_page_size must be in [1, max_page_size]")
	}
	if c.Inventory.Pool.MaxConns < 1 {
		return fmt.Errorf("inventory.pool.max_conns must be positive")
	}
	if p := c.Delay.Peak; p.StartHour < 0 || p.EndHour > 23 || p.StartHour > p.EndHour {
		return fmt.Errorf("delay.peak: invalid hours [%d, %d]", p.StartHour, p.EndHour)
	}
	if p := c.Delay.Peak.Probability; p < 0 || p > 1 {
		return fmt.Errorf("delay.peak.probability must be in [0, 1]")
	}
	return nil
}
