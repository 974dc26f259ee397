package guardian

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/audit"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/detector"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/rule"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// baselineConditions are always evaluated, independent of rule
// configuration. They form the non-configurable safety gate beneath the
// configurable rule layer.
var baselineConditions = []string{"pii_leak", "safeguarding_recommended"}

// Guardian gates sensitive actions against the configured rules and the
// mandatory baseline detectors.
type Guardian struct {
	rules     rule.Store
	detectors *detector.Registry
	escalator *Escalator
	audits    audit.Sink
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a Guardian. audits should normally be an audit.RetryingSink
// so that provenance failures cannot leak back into decisions.
func New(rules rule.Store, detectors *detector.Registry, escalator *Escalator, audits audit.Sink, logger *slog.Logger) *Guardian {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guardian{
		rules:     rules,
		detectors: detectors,
		escalator: escalator,
		audits:    audits,
		logger:    logger,
	}
}

// WithTracer sets the OpenTelemetry tracer for evaluations.
func (g *Guardian) WithTracer(tracer trace.Tracer) *Guardian {
	g.tracer = tracer
	return g
}

// Evaluate gates one action attempt. It resolves the active rules for the
// trigger, runs their bound detectors plus the mandatory baseline, decides
// enforcement, escalates safeguarding findings, and records the audit
// entry. The caller must abort the action whenever the decision is blocked.
//
// Evaluate fails safe: if active rules cannot be loaded, the baseline
// detectors still run and safeguarding findings still block; the skipped
// rule checks are reported as unavailable instead of silently dropped.
func (g *Guardian) Evaluate(ctx context.Context, triggerEvent, content string, ec EvalContext) (Decision, error) {
	if ec.TenantID == "" {
		return Decision{}, types.NewValidationError("evaluation requires a tenant id", nil)
	}
	if triggerEvent == "" {
		return Decision{}, types.NewValidationError("evaluation requires a trigger event", nil)
	}

	var span trace.Span
	if g.tracer != nil {
		ctx, span = g.tracer.Start(ctx, "guardian.evaluate",
			trace.WithAttributes(
				attribute.String("trigger_event", triggerEvent),
				attribute.String("tenant_id", ec.TenantID),
			),
		)
		defer span.End()
	}

	matched, rulesErr := g.rules.ActiveRulesFor(ctx, triggerEvent, ec.TenantID)
	if rulesErr != nil {
		g.logger.WarnContext(ctx, "rule store unavailable, degrading to baseline-only enforcement",
			"trigger_event", triggerEvent,
			"tenant_id", ec.TenantID,
			"error", rulesErr,
		)
		matched = nil
	}

	findings, byCondition := g.runDetectors(ctx, content, ec, matched)
	if rulesErr != nil {
		findings = append(findings, detector.Finding{
			Type:     detector.TypeRuleUnavailable,
			Message:  "configured rule checks could not be loaded and were not evaluated",
			Severity: detector.SeverityInfo,
		})
	}

	decision := decide(findings, byCondition, matched, ec.Override)
	decision.RuleChecksUnavailable = rulesErr != nil

	if span != nil {
		span.SetAttributes(
			attribute.Bool("blocked", decision.Blocked),
			attribute.Int("finding_count", len(decision.Findings)),
			attribute.Int("matched_rules", len(matched)),
		)
	}

	// Escalation runs before the decision is returned and regardless of
	// its outcome.
	var escalated *alertRef
	if a := g.escalator.Escalate(ctx, decision.Findings, ec); a != nil {
		escalated = &alertRef{ID: a.ID.String()}
	}

	g.recordAudit(ctx, triggerEvent, ec, decision, escalated)

	return decision, nil
}

type alertRef struct {
	ID string `json:"id"`
}

// runDetectors runs each distinct detector once: the mandatory baseline
// plus every matched rule's bound condition. Findings are aggregated and
// also indexed by condition so the decider can tie rules to the findings
// their conditions produced.
func (g *Guardian) runDetectors(ctx context.Context, content string, ec EvalContext, matched []*rule.PolicyRule) ([]detector.Finding, map[string][]detector.Finding) {
	conditions := make([]string, 0, len(baselineConditions)+len(matched))
	seen := make(map[string]struct{})
	for _, name := range baselineConditions {
		conditions = append(conditions, name)
		seen[name] = struct{}{}
	}
	for _, r := range matched {
		if _, ok := seen[r.TriggerCondition]; ok {
			continue
		}
		seen[r.TriggerCondition] = struct{}{}
		conditions = append(conditions, r.TriggerCondition)
	}

	var findings []detector.Finding
	byCondition := make(map[string][]detector.Finding)
	dctx := ec.detectorContext()

	for _, name := range conditions {
		d, ok := g.detectors.Get(name)
		if !ok {
			g.logger.WarnContext(ctx, "no detector registered for trigger condition",
				"code", string(types.DETECTOR_NOT_FOUND),
				"condition", name,
			)
			continue
		}

		result := g.runDetector(ctx, d, content, dctx)
		if len(result) == 0 {
			continue
		}
		findings = append(findings, result...)
		byCondition[name] = result
	}
	return findings, byCondition
}

// runDetector isolates one detector call. A panicking detector is a bug; it
// is logged and its contribution dropped rather than failing the whole
// evaluation.
func (g *Guardian) runDetector(ctx context.Context, d detector.Detector, content string, dctx detector.Context) (findings []detector.Finding) {
	defer func() {
		if r := recover(); r != nil {
			err := types.NewDetectorError(d.Name(), nil)
			g.logger.ErrorContext(ctx, "detector panicked, dropping its findings",
				"code", string(types.DETECTOR_FAILED),
				"detector", d.Name(),
				"panic", r,
				"error", err,
			)
			findings = nil
		}
	}()
	return d.Check(ctx, content, dctx)
}

// recordAudit persists the provenance entry for one evaluation. The write
// is a pure side channel: the decision has already been made, and a
// persistence failure must not convert a blocked outcome into an allowed
// one (or the reverse). The retrying sink logs failures at highest severity
// so audit loss is detectable, and retries in the background. That trades
// momentary audit completeness for availability of the gated action, which
// is the intended balance.
func (g *Guardian) recordAudit(ctx context.Context, triggerEvent string, ec EvalContext, decision Decision, escalated *alertRef) {
	metadata := map[string]any{
		"findings":         decision.Findings,
		"blocked":          decision.Blocked,
		"matched_rule_ids": decision.MatchedRuleIDs,
	}
	if len(decision.Simulated) > 0 {
		metadata["simulated"] = decision.Simulated
	}
	if decision.OverriddenRule != nil {
		metadata["override"] = map[string]any{
			"rule_id":       decision.OverriddenRule.String(),
			"actor_id":      ec.Override.ActorID,
			"justification": ec.Override.Justification,
		}
	}
	if decision.RuleChecksUnavailable {
		metadata["rule_checks_unavailable"] = true
	}
	if escalated != nil {
		metadata["alert_id"] = escalated.ID
	}

	entry := audit.Entry{
		TenantID:     ec.TenantID,
		Action:       triggerEvent,
		ResourceType: ec.ResourceType,
		ResourceID:   ec.ResourceID,
		ActorID:      ec.ActorID,
		Details:      "guardian evaluation",
		Metadata:     metadata,
	}

	if err := g.audits.Record(ctx, entry); err != nil {
		// Only reachable with a non-retrying sink; same policy applies.
		g.logger.ErrorContext(ctx, "audit write failed",
			"code", string(types.STORAGE_AUDIT_LOSS_RISK),
			"action", triggerEvent,
			"tenant_id", ec.TenantID,
			"error", err,
		)
	}
}
