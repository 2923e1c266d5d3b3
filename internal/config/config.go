package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Messages  MessagesConfig  `mapstructure:"messages" yaml:"messages"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// StoreConfig selects and locates the persistence driver.
type StoreConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	BadgerDir   string `mapstructure:"badger_dir" yaml:"badger_dir"`
	PostgresURL string `mapstructure:"postgres_url" yaml:"postgres_url"`
}

// RedisConfig enables cross-instance broadcast when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Channel  string `mapstructure:"channel" yaml:"channel"`
}

// RateLimitConfig bounds requests per client IP. Requests <= 0 disables limiting.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" yaml:"requests"`
	Window   time.Duration `mapstructure:"window" yaml:"window"`
}

// MessagesConfig controls message ingestion. Sanitize strips markup before persistence.
type MessagesConfig struct {
	Sanitize bool `mapstructure:"sanitize" yaml:"sanitize"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "chatline.db",
			BadgerDir:  "data/badger",
		},
		Redis: RedisConfig{
			Channel: "chatline:messages",
		},
		RateLimit: RateLimitConfig{
			Requests: 20,
			Window:   time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Boolean switches are not merged; set them through the config file or env.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.SQLitePath != "" {
		c.Store.SQLitePath = other.Store.SQLitePath
	}
	if other.Store.BadgerDir != "" {
		c.Store.BadgerDir = other.Store.BadgerDir
	}
	if other.Store.PostgresURL != "" {
		c.Store.PostgresURL = other.Store.PostgresURL
	}
	if other.Redis.Addr != "" {
		c.Redis.Addr = other.Redis.Addr
	}
	if other.Redis.Channel != "" {
		c.Redis.Channel = other.Redis.Channel
	}
}
