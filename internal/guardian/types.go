package guardian

import (
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/detector"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Trigger events consulted by the calling workflows.
const (
	TriggerAssessmentFinalize = "assessment.finalize"
	TriggerDocumentUpload     = "document.upload"
	TriggerAIGenerate         = "ai.generate"
)

// SafeguardingMessage is shown whenever a safeguarding finding blocks an
// action. It is fixed and non-overridable, distinct from configurable rule
// remediation.
const SafeguardingMessage = "This action has been stopped because the content raises a safeguarding concern. " +
	"The concern has been escalated for review by the designated safeguarding lead. " +
	"This check cannot be overridden."

// OverrideRequest is an explicit, justified request to proceed past a
// blocking rule that allows overrides. Overrides never apply to
// safeguarding findings, and every exercised override is audited.
type OverrideRequest struct {
	RuleID        types.ID `json:"rule_id"`
	ActorID       string   `json:"actor_id"`
	Justification string   `json:"justification"`
}

// EvalContext carries the identifiers and structured context for one
// evaluation.
type EvalContext struct {
	TenantID        string           `json:"tenant_id"`
	ActorID         string           `json:"actor_id"`
	ResourceType    string           `json:"resource_type,omitempty"`
	ResourceID      string           `json:"resource_id,omitempty"`
	TargetID        string           `json:"target_id,omitempty"`
	ConsentRecorded bool             `json:"consent_recorded,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	Override        *OverrideRequest `json:"override,omitempty"`
}

func (ec EvalContext) detectorContext() detector.Context {
	return detector.Context{
		TenantID:        ec.TenantID,
		ActorID:         ec.ActorID,
		ResourceID:      ec.ResourceID,
		TargetID:        ec.TargetID,
		ConsentRecorded: ec.ConsentRecorded,
		Metadata:        ec.Metadata,
	}
}

// SimulatedOutcome records what a simulate-rollout rule would have decided.
// Simulated outcomes are observability data only; they never contribute to
// the blocked flag.
type SimulatedOutcome struct {
	RuleID     types.ID `json:"rule_id"`
	RuleName   string   `json:"rule_name"`
	WouldBlock bool     `json:"would_block"`
}

// Decision is the outcome of one evaluation. Callers must abort the gated
// action whenever Blocked is true and surface Remediation to the user.
type Decision struct {
	Blocked        bool               `json:"blocked"`
	Findings       []detector.Finding `json:"findings"`
	MatchedRuleIDs []types.ID         `json:"matched_rule_ids"`
	Remediation    []string           `json:"remediation,omitempty"`
	Simulated      []SimulatedOutcome `json:"simulated,omitempty"`
	OverriddenRule *types.ID          `json:"overridden_rule,omitempty"`

	// RuleChecksUnavailable is set when the rule store could not be read
	// and only the baseline detectors ran.
	RuleChecksUnavailable bool `json:"rule_checks_unavailable,omitempty"`
}

// HasSafeguarding reports whether any finding is safeguarding-class.
func (d Decision) HasSafeguarding() bool {
	for _, f := range d.Findings {
		if f.Type == detector.TypeSafeguarding {
			return true
		}
	}
	return false
}
