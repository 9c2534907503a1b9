// loader.go — environment-driven configuration loading via koanf.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MCP_"

// Loader assembles a Config from defaults, an optional seed file, then
// environment variables, in that priority order (later wins).
type Loader struct {
	k          *koanf.Koanf
	envPrefix  string
	seedPath   string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvPrefix overrides the environment-variable prefix (default "MCP_").
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithSeedFile points the loader at an optional YAML file of overrides,
// loaded between defaults and the environment.
func WithSeedFile(path string) LoaderOption {
	return func(l *Loader) { l.seedPath = path }
}

// NewLoader constructs a Loader with the given options.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{k: koanf.New("."), envPrefix: envPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves and validates a Config.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if l.seedPath != "" {
		if _, err := os.Stat(l.seedPath); err == nil {
			if err := l.k.Load(file.Provider(l.seedPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load seed file %s: %w", l.seedPath, err)
			}
		}
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		"app.name":         "scrapemcp",
		"app.version":      "0.1.0",
		"app.env":          "development",
		"app.optimize_for": "cost",

		"http.port":              8081,
		"http.allowed_hosts":     []string{},
		"http.allowed_origins":   []string{},
		"http.allow_credentials": false,
		"http.read_timeout":      30 * time.Second,
		"http.write_timeout":     30 * time.Second,
		"http.max_body_bytes":    int64(5 * 1024 * 1024),
		"http.idle_session_ttl":  30 * time.Minute,

		"log.format": "text",
		"log.debug":  false,

		"store.backend":        "memory",
		"store.filesystem_dir": "",
		"store.ttl":            0 * time.Second,
		"store.max_items":      10000,
		"store.max_bytes":      int64(512 * 1024 * 1024),
		"store.sweep_interval": 60 * time.Second,
		"store.ring_size":      1024,

		"strategy.persist_path": "",
		"strategy.seed_path":    "",

		"upstream.base_url":    "",
		"upstream.api_key":     "",
		"upstream.timeout":     60 * time.Second,
		"upstream.rate_per_sec": 5.0,
		"upstream.rate_burst":  10,

		"llm.provider": "none",
		"llm.api_key":  "",
		"llm.model":    "claude-3-5-haiku-latest",

		"metrics.ring_size":    1024,
		"metrics.auth_enabled": false,
		"metrics.auth_key":     "",

		"event_store.backend":   "memory",
		"event_store.redis_url": "",

		"oauth.enabled": false,
	}
	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, l.envPrefix)),
			"_", ".",
		)
	}), nil)
}

// Load loads configuration with no seed file and the default "MCP_" prefix.
func Load() (*Config, error) {
	return NewLoader().Load()
}

// MustLoad loads configuration or panics, for use at process startup.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
