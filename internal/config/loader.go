package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Loader handles loading configuration from YAML files.
type Loader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string, homeDir string) (*Config, error)
}

type viperLoader struct {
	validator Validator
}

// NewLoader creates a Loader backed by viper.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

// Load reads and validates the config file at path.
func (l *viperLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, &types.GuardianError{
			Code:    types.CONFIG_LOAD_FAILED,
			Message: fmt.Sprintf("failed to read config file %s", path),
			Cause:   err,
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &types.GuardianError{
			Code:    types.CONFIG_LOAD_FAILED,
			Message: "failed to unmarshal config",
			Cause:   err,
		}
	}

	interpolateStrings(&cfg)

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithDefaults loads path if it exists, otherwise returns defaults
// rooted at homeDir.
func (l *viperLoader) LoadWithDefaults(path string, homeDir string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default(homeDir)
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return l.Load(path)
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv replaces ${VAR} references with environment values,
// leaving unset references intact so validation can flag them.
func interpolateEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

func interpolateStrings(cfg *Config) {
	cfg.Home = interpolateEnv(cfg.Home)
	cfg.Database.Path = interpolateEnv(cfg.Database.Path)
	cfg.Logging.Level = interpolateEnv(cfg.Logging.Level)
	cfg.Logging.Format = interpolateEnv(cfg.Logging.Format)
}
