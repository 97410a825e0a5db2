package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v", err)
	}
	if cfg.Debounce != time.Second {
		t.Errorf("default debounce = %s, want 1s", cfg.Debounce)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `endpoint: http://localhost:8080/super-chat
debounce: 100ms
strategy: get
share: false
output: ./out
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Endpoint != "http://localhost:8080/super-chat" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("debounce = %s, want 100ms", cfg.Debounce)
	}
	if cfg.Strategy != "get" || cfg.Share || cfg.OutputFolder != "./out" {
		t.Errorf("unexpected config %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.Protocol != "auto" || cfg.Timeout != Defaults().Timeout {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config should be ignored, got %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	if _, err := Load(missing, true); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("debounce: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, false); err == nil {
		t.Error("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"strategy", func(c *Config) { c.Strategy = "put" }},
		{"protocol", func(c *Config) { c.Protocol = "vt100" }},
		{"debounce", func(c *Config) { c.Debounce = 0 }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
