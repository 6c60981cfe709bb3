// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Store types
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// validSorts mirrors views.SortKeys without importing the views package.
var validSorts = []string{"createdAt", "dueDate", "priority", "alphabetical", "custom"}

// StoreConfig selects the persistent byte store
type StoreConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Config represents the application configuration
type Config struct {
	Store       StoreConfig   `yaml:"store"`
	Locale      string        `yaml:"locale"`
	DefaultSort string        `yaml:"default_sort"`
	ViewsDir    string        `yaml:"views_dir"`
	Logging     LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields and expands paths.
func (c *Config) applyDefaults() {
	if c.Store.Type == "" {
		c.Store.Type = StoreFile
	}
	c.Store.Type = strings.ToLower(c.Store.Type)
	if c.Store.Path == "" {
		switch c.Store.Type {
		case StoreFile:
			c.Store.Path = filepath.Join(GetDataDir(), "store")
		case StoreSQLite:
			c.Store.Path = filepath.Join(GetDataDir(), "tasks.db")
		}
	}
	c.Store.Path = ExpandPath(c.Store.Path)

	if c.Locale == "" {
		c.Locale = "und"
	}
	if c.DefaultSort == "" {
		c.DefaultSort = "createdAt"
	}
	if c.ViewsDir == "" {
		c.ViewsDir = filepath.Join(GetConfigDir(), "views")
	}
	c.ViewsDir = ExpandPath(c.ViewsDir)
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return DefaultConfig(), nil
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadFromPath parses the file at configPath and applies defaults without
// creating anything.
func LoadFromPath(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is required")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// writeSample writes the documented sample configuration to path
func writeSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for store type %q", c.Store.Type)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store.type: %q (must be 'file', 'sqlite' or 'memory')", c.Store.Type)
	}

	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale: %q", c.Locale)
	}

	valid := false
	for _, s := range validSorts {
		if strings.EqualFold(s, c.DefaultSort) {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("invalid default_sort: %q (must be one of %s)", c.DefaultSort, strings.Join(validSorts, ", "))
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(storeType, storePath string, verbose bool) {
	if storeType != "" {
		c.Store.Type = strings.ToLower(storeType)
		if storePath == "" {
			// the default path of the previous type no longer applies
			c.Store.Path = ""
		}
	}
	if storePath != "" {
		c.Store.Path = storePath
	}
	if verbose {
		c.Logging.Verbose = true
	}
	c.applyDefaults()
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "tasktrack")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "tasktrack")
	}
	return filepath.Join(home, fallbackPath, "tasktrack")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
