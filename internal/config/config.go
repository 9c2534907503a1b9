// config.go — typed configuration struct for the ingestion service.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Strategy  StrategyConfig  `koanf:"strategy"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	LLM       LLMConfig       `koanf:"llm"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	EventStore EventStoreConfig `koanf:"event_store"`
	OAuth     OAuthConfig     `koanf:"oauth"`
}

// AppConfig carries process-wide identity.
type AppConfig struct {
	Name      string `koanf:"name"`
	Version   string `koanf:"version"`
	Env       string `koanf:"env"` // development, production
	OptimizeFor string `koanf:"optimize_for"` // cost, speed
}

// HTTPConfig governs the network surface (C9).
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	AllowedHosts    []string      `koanf:"allowed_hosts"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	AllowCredentials bool         `koanf:"allow_credentials"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	IdleSessionTTL  time.Duration `koanf:"idle_session_ttl"`
}

// LogConfig governs slog setup.
type LogConfig struct {
	Format string `koanf:"format"` // text, json
	Debug  bool   `koanf:"debug"`
}

// StoreConfig governs the Resource Store (C2).
type StoreConfig struct {
	Backend       string `koanf:"backend"` // memory, filesystem
	FilesystemDir string `koanf:"filesystem_dir"`
	TTL           time.Duration `koanf:"ttl"` // 0 disables
	MaxItems      int    `koanf:"max_items"`
	MaxBytes      int64  `koanf:"max_bytes"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	RingSize      int    `koanf:"ring_size"`
}

// StrategyConfig governs the Strategy Registry (C3).
type StrategyConfig struct {
	PersistPath string `koanf:"persist_path"`
	SeedPath    string `koanf:"seed_path"`
}

// UpstreamConfig governs the Enhanced Fetcher (C4).
type UpstreamConfig struct {
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	RatePerSec float64       `koanf:"rate_per_sec"`
	RateBurst  int           `koanf:"rate_burst"`
}

// LLMConfig governs the extraction provider (C5).
type LLMConfig struct {
	Provider string `koanf:"provider"` // anthropic, none
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`
}

// MetricsConfig governs C1 and its HTTP exposure.
type MetricsConfig struct {
	RingSize    int    `koanf:"ring_size"`
	AuthEnabled bool   `koanf:"auth_enabled"`
	AuthKey     string `koanf:"auth_key"`
}

// EventStoreConfig governs C8's resumable event store backend.
type EventStoreConfig struct {
	Backend  string `koanf:"backend"` // memory, redis
	RedisURL string `koanf:"redis_url"`
}

// OAuthConfig governs whether OAuth endpoints are served or stubbed 404.
type OAuthConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Validate checks cross-field invariants the loader cannot express as defaults.
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Store.Backend {
	case "memory", "filesystem":
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be memory or filesystem, got %q", c.Store.Backend))
	}
	if c.Store.Backend == "filesystem" && c.Store.FilesystemDir == "" {
		errs = append(errs, "store.filesystem_dir is required when store.backend=filesystem")
	}

	switch c.App.OptimizeFor {
	case "cost", "speed":
	default:
		errs = append(errs, fmt.Sprintf("app.optimize_for must be cost or speed, got %q", c.App.OptimizeFor))
	}

	switch c.EventStore.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("event_store.backend must be memory or redis, got %q", c.EventStore.Backend))
	}
	if c.EventStore.Backend == "redis" && c.EventStore.RedisURL == "" {
		errs = append(errs, "event_store.redis_url is required when event_store.backend=redis")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsProduction reports whether allow-list enforcement for hosts/origins should be strict.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}
