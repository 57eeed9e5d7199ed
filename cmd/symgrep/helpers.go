package main

import (
	"fmt"
	"os"
	"sync"

	"symgrep/internal/config"
	"symgrep/internal/language"
	"symgrep/internal/logging"
)

var (
	registryOnce sync.Once
	registry     *language.Registry
)

// sharedRegistry returns the process-wide language backend registry.
func sharedRegistry() *language.Registry {
	registryOnce.Do(func() {
		registry = language.NewRegistry()
	})
	return registry
}

// mustGetRepoRoot returns the current working directory or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// loadEffectiveConfig loads <repoRoot>/.symgrep/config.json, falling back
// to built-in defaults and logging a warning when the file is present but
// cannot be parsed.
func loadEffectiveConfig(repoRoot string, logger *logging.Logger) *config.Config {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		logger.Warn("failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return config.DefaultConfig()
	}
	return cfg
}

// newLogger creates a logger whose format matches the requested output
// format, so diagnostics and JSON results don't interleave on stdout.
func newLogger(outputFormat string) *logging.Logger {
	logFormat := logging.HumanFormat
	if outputFormat == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})
}

func failf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
