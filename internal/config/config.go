package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name looked up when no --config flag is given.
const DefaultConfigFile = "kisan.yaml"

// Config holds all Kisan Plant Doctor configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Generative model used for diagnosis, conversation and weather
	LLM LLMConfig `yaml:"llm"`

	// Local SQLite persistence
	Store StoreConfig `yaml:"store"`

	// Session response cache
	Cache CacheConfig `yaml:"cache"`

	// Turn handling
	Session SessionConfig `yaml:"session"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Prometheus metrics
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig configures the storage adapter.
type StoreConfig struct {
	// Driver is "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
}

// CacheConfig configures the per-session response cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// SignatureWindow is how many trailing image bytes form the image signature.
	SignatureWindow int `yaml:"signature_window"`
	// MaxEntries bounds the cache with LRU eviction; 0 keeps it unbounded.
	MaxEntries int `yaml:"max_entries"`
}

// SessionConfig configures turn handling.
type SessionConfig struct {
	// Language is the default conversation language (code or name).
	Language string `yaml:"language"`
	// HistoryTurns is how many prior messages are sent as conversation context.
	HistoryTurns int `yaml:"history_turns"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Kisan Plant Doctor",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-3-flash-preview",
			Timeout:     "60s",
			Temperature: 0.2,
		},

		Store: StoreConfig{
			Driver:       "sqlite3",
			DatabasePath: filepath.Join("data", "kisan.sqlite"),
		},

		Cache: CacheConfig{
			Enabled:         true,
			SignatureWindow: 100,
			MaxEntries:      0,
		},

		Session: SessionConfig{
			Language:     "en",
			HistoryTurns: 6,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},

		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9464",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API_KEY is the generic credential; GEMINI_API_KEY wins when both are set.
	if key := os.Getenv("API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if model := os.Getenv("KISAN_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("KISAN_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if level := os.Getenv("KISAN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini"}

// ValidDrivers lists the registered SQLite drivers.
var ValidDrivers = []string{"sqlite3", "sqlite"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY or API_KEY)")
	}
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if err := c.ValidateLocal(); err != nil {
		return err
	}
	return nil
}

// ValidateLocal checks everything that does not need the model credential,
// for commands that only touch the local store.
func (c *Config) ValidateLocal() error {
	if !contains(ValidDrivers, c.Store.Driver) {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path is required")
	}
	if c.Cache.SignatureWindow <= 0 {
		return fmt.Errorf("cache.signature_window must be positive, got %d", c.Cache.SignatureWindow)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got %d", c.Cache.MaxEntries)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature out of range: %v", c.LLM.Temperature)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
