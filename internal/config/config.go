// Package config loads superchat settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/blacktop/superchat/internal/superchat"
	"gopkg.in/yaml.v3"
)

// DefaultQuietInterval is how long the form has to stay untouched before the
// preview is refreshed.
const DefaultQuietInterval = time.Second

var (
	ValidStrategies = []string{"post", "get"}
	ValidProtocols  = []string{"auto", "kitty", "iterm2", "sixel", "halfblocks", "none"}
)

type Config struct {
	Endpoint     string        `yaml:"endpoint"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	OutputFolder string        `yaml:"output"`
	Debounce     time.Duration `yaml:"debounce"`
	// Strategy picks how images are fetched for download: post or get.
	Strategy       string `yaml:"strategy"`
	Share          bool   `yaml:"share"`
	HonorLinkPrice bool   `yaml:"honor_link_price"`
	Protocol       string `yaml:"protocol"`
	LogFile        string `yaml:"log_file"`
}

func Defaults() Config {
	return Config{
		Endpoint:  superchat.DefaultEndpoint,
		UserAgent: superchat.DefaultUserAgent,
		Timeout:   superchat.DefaultTimeout,
		Debounce:  DefaultQuietInterval,
		Strategy:  "post",
		Share:     true,
		Protocol:  "auto",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/superchat/config.yaml (or the OS
// equivalent). Empty if the config dir can't be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "superchat", "config.yaml")
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Load reads path. A missing file is only an error when the user asked for it
// explicitly.
func Load(path string, explicit bool) (Config, error) {
	if path == "" {
		return Defaults(), nil
	}
	cfg, err := LoadFromFile(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

func (c Config) Validate() error {
	if !slices.Contains(ValidStrategies, c.Strategy) {
		return fmt.Errorf("invalid strategy %q (must be one of: %s)", c.Strategy, strings.Join(ValidStrategies, ", "))
	}
	if !slices.Contains(ValidProtocols, c.Protocol) {
		return fmt.Errorf("invalid protocol %q (must be one of: %s)", c.Protocol, strings.Join(ValidProtocols, ", "))
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("invalid debounce %s (must be positive)", c.Debounce)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s (must be positive)", c.Timeout)
	}
	return nil
}
