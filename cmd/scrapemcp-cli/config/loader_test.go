// loader_test.go — Tests for the CLI configuration priority cascade.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchServerDefaultPort(t *testing.T) {
	t.Parallel()
	d := Defaults()
	if d.ServerPort != 8081 {
		t.Errorf("expected default port 8081, got %d", d.ServerPort)
	}
	if d.Format != "human" {
		t.Errorf("expected default format human, got %q", d.Format)
	}
}

func TestLoadAppliesProjectConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".scrapemcp.json"), []byte(`{"server_port": 9001, "format": "json"}`), 0o644)

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 9001 {
		t.Errorf("expected project config port 9001, got %d", cfg.ServerPort)
	}
	if cfg.Format != "json" {
		t.Errorf("expected project config format json, got %q", cfg.Format)
	}
}

func TestLoadEnvVarsOverrideProjectConfig(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".scrapemcp.json"), []byte(`{"server_port": 9001}`), 0o644)
	t.Setenv("SCRAPEMCP_PORT", "9500")

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 9500 {
		t.Errorf("expected env override port 9500, got %d", cfg.ServerPort)
	}
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCRAPEMCP_PORT", "9500")

	port := 7777
	cfg, err := Load(dir, &FlagOverrides{ServerPort: &port})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 7777 {
		t.Errorf("expected flag override port 7777, got %d", cfg.ServerPort)
	}
}

func TestValidateRejectsBadFormat(t *testing.T) {
	t.Parallel()
	cfg := Defaults()
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for bad format")
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	t.Parallel()
	cfg := Defaults()
	cfg.ServerPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for out-of-range port")
	}
}
