package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all pageanalytics configuration.
type Config struct {
	// Tracker identity
	Name      string `yaml:"name"`
	SessionID string `yaml:"session_id"`
	UserID    string `yaml:"user_id"`

	// Severity every event is written at: debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// Value redaction
	Masking MaskingConfig `yaml:"masking"`

	// Recipe table; empty uses the built-in one
	RecipesPath string `yaml:"recipes_path"`

	// Host release the application runs on; checked against the recipe table
	HostVersion string `yaml:"host_version"`

	// Diagnostics
	Logging LoggingConfig `yaml:"logging"`
}

// MaskingConfig configures value redaction.
type MaskingConfig struct {
	TextInputs bool `yaml:"text_inputs"` // text_input and text_area values
	AllValues  bool `yaml:"all_values"`  // every element value
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:      "pagetrack",
		SessionID: "unknown",
		UserID:    "unknown",
		LogLevel:  "info",
		Logging: LoggingConfig{
			Level:      "info",
			DebugMode:  false,
			JSONFormat: true,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
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
	if v := os.Getenv("PAGETRACK_SESSION_ID"); v != "" {
		c.SessionID = v
	}
	if v := os.Getenv("PAGETRACK_USER_ID"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("PAGETRACK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PAGETRACK_RECIPES"); v != "" {
		c.RecipesPath = v
	}
	if b, ok := envBool("PAGETRACK_MASK_TEXT_INPUTS"); ok {
		c.Masking.TextInputs = b
	}
	if b, ok := envBool("PAGETRACK_MASK_ALL_VALUES"); ok {
		c.Masking.AllValues = b
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// EventLevel returns the configured event severity.
func (c *Config) EventLevel() (zapcore.Level, error) {
	return parseLevel(c.LogLevel)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if _, err := c.EventLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.RecipesPath != "" {
		if _, err := os.Stat(c.RecipesPath); err != nil {
			errs = append(errs, fmt.Errorf("recipes_path: %w", err))
		}
	}
	return errors.Join(errs...)
}

// parseLevel accepts debug through error. dpanic, panic and fatal are refused:
// zap panics or exits when writing at those levels.
func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, err
	}
	if level > zapcore.ErrorLevel {
		return zapcore.InfoLevel, fmt.Errorf("level %q is above error", s)
	}
	return level, nil
}
