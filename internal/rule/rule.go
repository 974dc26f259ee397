package rule

import (
	"fmt"
	"time"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Status represents the lifecycle status of a rule version.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Severity represents the configured severity of a rule.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Mode is the enforcement mode of a rule.
type Mode string

const (
	ModeAdvisory Mode = "advisory"
	ModeEnforce  Mode = "enforce"
)

// RolloutMode controls whether a rule's outcome can block.
type RolloutMode string

const (
	RolloutLive     RolloutMode = "live"
	RolloutSimulate RolloutMode = "simulate"
)

// SharedTenant scopes a rule to every tenant, used by jurisdiction packs.
const SharedTenant = "global"

// PolicyRule is one version of a configured guardrail. Published versions
// are immutable; editing a rule publishes a new version whose
// PreviousRuleID points at the superseded one, forming a lineage.
type PolicyRule struct {
	ID               types.ID    `json:"id"`
	Version          int         `json:"version"`
	PreviousRuleID   *types.ID   `json:"previous_rule_id,omitempty"`
	Status           Status      `json:"status"`
	Name             string      `json:"name"`
	TriggerEvent     string      `json:"trigger_event"`
	TriggerCondition string      `json:"trigger_condition"`
	AppliesToActions []string    `json:"applies_to_actions"`
	Severity         Severity    `json:"severity"`
	Mode             Mode        `json:"mode"`
	RolloutMode      RolloutMode `json:"rollout_mode"`
	BlockActions     bool        `json:"block_actions"`
	AllowOverride    bool        `json:"allow_override"`
	Enabled          bool        `json:"enabled"`
	Remediation      string      `json:"remediation"`
	TenantID         string      `json:"tenant_id"`
	Jurisdiction     string      `json:"jurisdiction"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// AppliesTo reports whether the rule matches the given trigger event.
func (r *PolicyRule) AppliesTo(triggerEvent string) bool {
	for _, action := range r.AppliesToActions {
		if action == triggerEvent {
			return true
		}
	}
	return false
}

// Normalize fills derivable defaults before validation: AppliesToActions
// defaults to the trigger event, jurisdiction to "Custom".
func (r *PolicyRule) Normalize() {
	if len(r.AppliesToActions) == 0 && r.TriggerEvent != "" {
		r.AppliesToActions = []string{r.TriggerEvent}
	}
	if r.Jurisdiction == "" {
		r.Jurisdiction = "Custom"
	}
}

// Validate checks that the rule payload is well-formed for publishing.
func (r *PolicyRule) Validate() error {
	if r.Name == "" {
		return types.NewValidationError("rule name is required", nil)
	}
	if r.TriggerEvent == "" {
		return types.NewValidationError("trigger event is required", nil)
	}
	if r.TriggerCondition == "" {
		return types.NewValidationError("trigger condition is required", nil)
	}
	if r.TenantID == "" {
		return types.NewValidationError("tenant id is required", nil)
	}
	switch r.Severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	default:
		return types.NewValidationError(fmt.Sprintf("invalid severity %q", r.Severity), nil)
	}
	switch r.Mode {
	case ModeAdvisory, ModeEnforce:
	default:
		return types.NewValidationError(fmt.Sprintf("invalid mode %q", r.Mode), nil)
	}
	switch r.RolloutMode {
	case RolloutLive, RolloutSimulate:
	default:
		return types.NewValidationError(fmt.Sprintf("invalid rollout mode %q", r.RolloutMode), nil)
	}
	if r.BlockActions && r.Mode != ModeEnforce {
		return types.NewValidationError("block_actions requires enforce mode", nil)
	}
	return nil
}
