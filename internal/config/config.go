// Package config loads and resolves symgrep's layered configuration:
// built-in defaults, an optional `.symgrep/config.json`, `SYMGREP_*`
// environment variables, and CLI flags, in that increasing order of
// precedence (spec §10.3).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config is symgrep's on-disk configuration shape (v1 schema).
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	SearchPaths []string `json:"searchPaths" mapstructure:"searchPaths"`

	DefaultMode     string `json:"defaultMode" mapstructure:"defaultMode"`
	DefaultBackend  string `json:"defaultBackend" mapstructure:"defaultBackend"`
	DefaultIndexPath string `json:"defaultIndexPath" mapstructure:"defaultIndexPath"`

	DefaultIncludes []string `json:"defaultIncludes" mapstructure:"defaultIncludes"`
	DefaultExcludes []string `json:"defaultExcludes" mapstructure:"defaultExcludes"`
	DefaultLimit    int      `json:"defaultLimit" mapstructure:"defaultLimit"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LoggingConfig mirrors internal/logging.Config's format/level knobs.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the zero-config behavior: walk ".", mode "auto",
// backend "file" under ".symgrep" (only consulted when --use-index is
// set), no limit, human logging at info level.
func DefaultConfig() *Config {
	return &Config{
		Version:          1,
		SearchPaths:      []string{"."},
		DefaultMode:      "auto",
		DefaultBackend:   "file",
		DefaultIndexPath: ".symgrep",
		DefaultIncludes:  []string{},
		DefaultExcludes:  []string{},
		DefaultLimit:     0,
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from `<repoRoot>/.symgrep/config.json`,
// falling back to DefaultConfig when no file is present.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", 1)
	v.SetDefault("defaultMode", "auto")
	v.SetDefault("defaultBackend", "file")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".symgrep"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to `<repoRoot>/.symgrep/config.json`.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".symgrep")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks the configuration for values the rest of the system
// assumes are well-formed.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	switch c.DefaultBackend {
	case "file", "sqlite":
	default:
		return &ConfigError{Field: "defaultBackend", Message: "must be \"file\" or \"sqlite\""}
	}
	switch c.DefaultMode {
	case "text", "symbol", "auto":
	default:
		return &ConfigError{Field: "defaultMode", Message: "must be \"text\", \"symbol\", or \"auto\""}
	}
	return nil
}

// ConfigError names the offending field in a configuration validation
// failure.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// ResolveString applies the CLI-flag > environment-variable > config-file
// > built-in-default precedence chain for a string-valued setting.
// flagValue is consulted only when non-empty (cobra string flags default
// to "").
func ResolveString(flagValue, envVar, configValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}

// ResolveBool applies the same precedence chain for a boolean setting.
// flagValue is a pointer so "flag not passed" (nil) is distinguishable
// from "flag explicitly set to false".
func ResolveBool(flagValue *bool, envVar string, configValue, defaultValue bool) bool {
	if flagValue != nil {
		return *flagValue
	}
	if v := os.Getenv(envVar); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	if configValue {
		return configValue
	}
	return defaultValue
}

// ResolveInt applies the same precedence chain for an integer setting.
// flagValue is a pointer so an unset flag is distinguishable from an
// explicit zero.
func ResolveInt(flagValue *int, envVar string, configValue, defaultValue int) int {
	if flagValue != nil {
		return *flagValue
	}
	if v := os.Getenv(envVar); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}
