package config

import (
	"os"
	"path/filepath"
)

// Config is the Guardian runtime configuration.
type Config struct {
	Home         string             `mapstructure:"home"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Safeguarding SafeguardingConfig `mapstructure:"safeguarding"`
	Audit        AuditConfig        `mapstructure:"audit"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// SafeguardingConfig configures the mandatory safeguarding detector.
// Keywords extend the built-in set; the detector itself cannot be
// disabled.
type SafeguardingConfig struct {
	Keywords []string `mapstructure:"keywords"`
}

// AuditConfig configures the retrying audit sink.
type AuditConfig struct {
	RetryIntervalSeconds int `mapstructure:"retry_interval_seconds"`
	MaxRetryAttempts     int `mapstructure:"max_retry_attempts"`
}

// DefaultHomeDir returns the default Guardian home directory.
func DefaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guardian"
	}
	return filepath.Join(home, ".guardian")
}

// DefaultConfigPath returns the default config file path under homeDir.
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// Default returns the default configuration rooted at homeDir.
func Default(homeDir string) *Config {
	return &Config{
		Home: homeDir,
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, "guardian.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Audit: AuditConfig{
			RetryIntervalSeconds: 5,
			MaxRetryAttempts:     10,
		},
	}
}
