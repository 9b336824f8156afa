package config

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Shim       ShimConfig       `mapstructure:"shim"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// UpstreamConfig points at the learning platform the companion observes.
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type SubmissionConfig struct {
	ReloadDelayMs  int `mapstructure:"reload_delay_ms"`
	AuthExpiryDays int `mapstructure:"auth_expiry_days"`
}

// ShimConfig guards the local API that the in-page shim talks to.
type ShimConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func (c *UpstreamConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *SubmissionConfig) ReloadDelay() time.Duration {
	return time.Duration(c.ReloadDelayMs) * time.Millisecond
}

func (c *SubmissionConfig) AuthExpiry() time.Duration {
	return time.Duration(c.AuthExpiryDays) * 24 * time.Hour
}

// Store holds the live configuration for race-free hot reloads. Readers take
// a whole snapshot with Load; a published snapshot is never mutated again.
type Store struct {
	p atomic.Pointer[Config]
}

func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.p.Store(cfg)
	return s
}

func (s *Store) Load() *Config {
	return s.p.Load()
}

func (s *Store) Swap(cfg *Config) {
	s.p.Store(cfg)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("UNIX_COMPANION")
	viper.AutomaticEnv()

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Upstream
	viper.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL")

	// Database
	viper.BindEnv("database.path", "DATABASE_PATH")

	// Shim
	viper.BindEnv("shim.api_key", "SHIM_API_KEY")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("server.port", "8477")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("upstream.base_url", "https://uni-x.almv.kz")
	viper.SetDefault("upstream.timeout_seconds", 30)
	viper.SetDefault("database.path", filepath.Join("data", "companion.db"))
	viper.SetDefault("submission.reload_delay_ms", 1500)
	viper.SetDefault("submission.auth_expiry_days", 7)
	viper.SetDefault("rate_limit.max_requests", 1000)
	viper.SetDefault("rate_limit.window_minutes", 1)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// The local API carries session credentials; refuse to run open in release mode.
	if cfg.Server.Mode == "release" && cfg.Shim.APIKey == "" {
		return nil, fmt.Errorf("shim.api_key must be set in release mode")
	}

	return &cfg, nil
}
