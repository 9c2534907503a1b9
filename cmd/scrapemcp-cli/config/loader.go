// loader.go — Configuration loading with priority cascade.
// Priority: defaults < global config < project config < env vars < flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all resolved configuration values.
type Config struct {
	ServerPort      int    `json:"server_port"`
	Format          string `json:"format"`
	Timeout         int    `json:"timeout"`
	AutoStartServer bool   `json:"auto_start_server"`
}

// FlagOverrides holds values explicitly set via command-line flags.
type FlagOverrides struct {
	ServerPort      *int
	Format          *string
	Timeout         *int
	AutoStartServer *bool
}

// Defaults returns the base configuration, matching the server's own
// default HTTP port.
func Defaults() Config {
	return Config{
		ServerPort:      8081,
		Format:          "human",
		Timeout:         5000,
		AutoStartServer: true,
	}
}

// Load builds the final configuration by applying the priority cascade:
// defaults < global (~/.scrapemcp/cli.json) < project (.scrapemcp.json) <
// env vars < flags.
func Load(projectDir string, flags *FlagOverrides) (Config, error) {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		_ = loadJSONFile(&cfg, filepath.Join(home, ".scrapemcp", "cli.json"))
	}
	if err := loadJSONFile(&cfg, filepath.Join(projectDir, ".scrapemcp.json")); err != nil {
		return cfg, fmt.Errorf("project config: %w", err)
	}

	loadEnvVars(&cfg)
	if flags != nil {
		applyFlags(&cfg, flags)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadJSONFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var fileCfg fileConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fileCfg.ServerPort != nil {
		cfg.ServerPort = *fileCfg.ServerPort
	}
	if fileCfg.Format != nil {
		cfg.Format = *fileCfg.Format
	}
	if fileCfg.Timeout != nil {
		cfg.Timeout = *fileCfg.Timeout
	}
	if fileCfg.AutoStartServer != nil {
		cfg.AutoStartServer = *fileCfg.AutoStartServer
	}
	return nil
}

// fileConfig uses pointers to distinguish "not set" from zero values.
type fileConfig struct {
	ServerPort      *int    `json:"server_port"`
	Format          *string `json:"format"`
	Timeout         *int    `json:"timeout"`
	AutoStartServer *bool   `json:"auto_start_server"`
}

func loadEnvVars(cfg *Config) {
	if v := os.Getenv("SCRAPEMCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = port
		}
	}
	if v := os.Getenv("SCRAPEMCP_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("SCRAPEMCP_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			cfg.Timeout = timeout
		}
	}
	if os.Getenv("SCRAPEMCP_NO_AUTO_START") == "1" {
		cfg.AutoStartServer = false
	}
}

func applyFlags(cfg *Config, flags *FlagOverrides) {
	if flags.ServerPort != nil {
		cfg.ServerPort = *flags.ServerPort
	}
	if flags.Format != nil {
		cfg.Format = *flags.Format
	}
	if flags.Timeout != nil {
		cfg.Timeout = *flags.Timeout
	}
	if flags.AutoStartServer != nil {
		cfg.AutoStartServer = *flags.AutoStartServer
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be 1-65535, got %d", c.ServerPort)
	}
	validFormats := map[string]bool{"human": true, "json": true, "csv": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("format must be human, json, or csv, got %q", c.Format)
	}
	return nil
}
