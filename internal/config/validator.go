package config

import (
	"fmt"
	"strings"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Validator validates loaded configuration.
type Validator interface {
	Validate(cfg *Config) error
}

type validator struct{}

// NewValidator creates the default config validator.
func NewValidator() Validator {
	return &validator{}
}

// Validate checks the configuration for operator errors.
func (v *validator) Validate(cfg *Config) error {
	var problems []string

	if cfg.Database.Path == "" {
		problems = append(problems, "database.path is required")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not recognized", cfg.Logging.Level))
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not recognized", cfg.Logging.Format))
	}

	if cfg.Audit.RetryIntervalSeconds < 0 {
		problems = append(problems, "audit.retry_interval_seconds cannot be negative")
	}
	if cfg.Audit.MaxRetryAttempts < 0 {
		problems = append(problems, "audit.max_retry_attempts cannot be negative")
	}

	for _, kw := range cfg.Safeguarding.Keywords {
		if strings.TrimSpace(kw) == "" {
			problems = append(problems, "safeguarding.keywords contains an empty keyword")
			break
		}
	}

	if len(problems) > 0 {
		return &types.GuardianError{
			Code:    types.CONFIG_VALIDATION_FAILED,
			Message: strings.Join(problems, "; "),
		}
	}
	return nil
}
