package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string        `mapstructure:"environment"`
	LogLevel    string        `mapstructure:"log_level"`
	API         APIConfig     `mapstructure:"api"`
	Health      HealthConfig  `mapstructure:"health"`
	History     HistoryConfig `mapstructure:"history"`
	Redis       RedisConfig   `mapstructure:"redis"`
}

// APIConfig points the client at the ChurnInsight backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// HealthConfig drives the periodic health poller.
type HealthConfig struct {
	CheckInterval string `mapstructure:"check_interval"`
}

// HistoryConfig holds the paging constants. PageSize is the fixed record
// count per remote call; MaxPages is a navigation guardrail, not a
// server-reported total.
type HistoryConfig struct {
	PageSize int    `mapstructure:"page_size"`
	MaxPages int    `mapstructure:"max_pages"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

// RedisConfig configures the optional page cache. An empty host disables
// caching entirely.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis page cache should be wired.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CheckIntervalDuration parses the poll interval.
func (h HealthConfig) CheckIntervalDuration() (time.Duration, error) {
	return time.ParseDuration(h.CheckInterval)
}

// CacheTTLDuration parses the page cache TTL.
func (h HistoryConfig) CacheTTLDuration() (time.Duration, error) {
	return time.ParseDuration(h.CacheTTL)
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if config.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url must not be empty")
	}
	if config.History.PageSize <= 0 {
		return nil, fmt.Errorf("history.page_size must be positive, got %d", config.History.PageSize)
	}
	if config.History.MaxPages <= 0 {
		return nil, fmt.Errorf("history.max_pages must be positive, got %d", config.History.MaxPages)
	}
	if _, err := config.Health.CheckIntervalDuration(); err != nil {
		return nil, fmt.Errorf("invalid health check interval: %w", err)
	}
	if _, err := config.History.CacheTTLDuration(); err != nil {
		return nil, fmt.Errorf("invalid history cache TTL: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Backend API
	viper.SetDefault("api.base_url", "http://localhost:8080")
	viper.SetDefault("api.timeout", 30)

	// Health polling
	viper.SetDefault("health.check_interval", "5s")

	// History paging
	viper.SetDefault("history.page_size", 10)
	viper.SetDefault("history.max_pages", 50)
	viper.SetDefault("history.cache_ttl", "30s")

	// Redis page cache (disabled unless a host is configured)
	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
}
