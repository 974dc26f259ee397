package detector

import "context"

// FindingType identifies the class of concern a detector reports.
type FindingType string

const (
	TypePIILeak         FindingType = "pii_leak"
	TypeSafeguarding    FindingType = "safeguarding"
	TypeMissingConsent  FindingType = "missing_consent"
	TypeMissingMetadata FindingType = "missing_metadata"
	TypeRuleUnavailable FindingType = "rule_checks_unavailable"
)

// FindingSeverity represents the severity level of a finding.
type FindingSeverity string

const (
	SeverityCritical FindingSeverity = "critical"
	SeverityHigh     FindingSeverity = "high"
	SeverityMedium   FindingSeverity = "medium"
	SeverityLow      FindingSeverity = "low"
	SeverityInfo     FindingSeverity = "info"
)

// Finding is one detector's report of a specific concern in scanned content.
// Findings are ephemeral; they are persisted only inside audit entries and
// alerts.
type Finding struct {
	Type     FindingType     `json:"type"`
	Message  string          `json:"message"`
	Severity FindingSeverity `json:"severity"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// Context carries the evaluation context a structural detector may inspect.
type Context struct {
	TenantID        string
	ActorID         string
	ResourceID      string
	TargetID        string
	ConsentRecorded bool
	Metadata        map[string]any
}

// Detector scans submitted content and returns zero or more findings.
//
// Implementations must be deterministic and side-effect free, and must not
// return an error for any input: unmatched or empty content yields an empty
// finding list. A detector that panics is treated as a bug by the evaluator
// and its contribution is dropped from that evaluation.
type Detector interface {
	Name() string
	Check(ctx context.Context, content string, ec Context) []Finding
}
