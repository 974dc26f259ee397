package guardian

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/alert"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/audit"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/database"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/detector"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/rule"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

type testHarness struct {
	guardian *Guardian
	rules    *rule.DBRuleStore
	alerts   *alert.DBAlertStore
	audits   *audit.DBAuditStore
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db).Migrate(context.Background()))

	logger := quietLogger()
	rules := rule.NewDBRuleStore(db)
	alerts := alert.NewDBAlertStore(db)
	audits := audit.NewDBAuditStore(db)
	escalator := NewEscalator(alerts, logger)

	return &testHarness{
		guardian: New(rules, detector.NewBuiltinRegistry(nil), escalator, audits, logger),
		rules:    rules,
		alerts:   alerts,
		audits:   audits,
	}
}

func (h *testHarness) publish(t *testing.T, mutate func(*rule.PolicyRule)) *rule.PolicyRule {
	t.Helper()
	r := &rule.PolicyRule{
		Name:             "test-rule",
		TriggerEvent:     TriggerAssessmentFinalize,
		TriggerCondition: "pii_leak",
		Severity:         rule.SeverityWarning,
		Mode:             rule.ModeAdvisory,
		RolloutMode:      rule.RolloutLive,
		Enabled:          true,
		TenantID:         "tenant-a",
	}
	mutate(r)
	published, err := h.rules.Publish(context.Background(), r, nil)
	require.NoError(t, err)
	return published
}

func evalCtx() EvalContext {
	return EvalContext{
		TenantID:   "tenant-a",
		ActorID:    "caseworker-1",
		ResourceID: "assessment-1",
		TargetID:   "student-1",
	}
}

// PII alone, with no rules configured, surfaces a finding without blocking.
func TestEvaluate_PIIBaselineIsAdvisory(t *testing.T) {
	h := newTestHarness(t)

	decision, err := h.guardian.Evaluate(context.Background(),
		TriggerDocumentUpload, "Contact me at jane@example.com", evalCtx())
	require.NoError(t, err)

	require.Len(t, decision.Findings, 1)
	assert.Equal(t, detector.TypePIILeak, decision.Findings[0].Type)
	assert.False(t, decision.Blocked)
	assert.Empty(t, decision.MatchedRuleIDs)
}

// A safeguarding finding blocks and escalates regardless of configuration.
func TestEvaluate_SafeguardingBlocksAndEscalates(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	decision, err := h.guardian.Evaluate(ctx,
		TriggerDocumentUpload, "I am thinking about self-harm", evalCtx())
	require.NoError(t, err)

	assert.True(t, decision.Blocked)
	require.True(t, decision.HasSafeguarding())
	assert.Contains(t, decision.Remediation, SafeguardingMessage)

	alerts, err := h.alerts.List(ctx, "tenant-a", nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.StatusNew, alerts[0].Status)
	assert.Equal(t, alert.TypeSafeguardingTrigger, alerts[0].Type)
	assert.Equal(t, "student-1", alerts[0].TargetID)
	assert.Contains(t, alerts[0].Details, "self-harm")
}

// Multiple safeguarding keywords in one evaluation produce one alert.
func TestEvaluate_EscalationDedupedPerEvaluation(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	_, err := h.guardian.Evaluate(ctx,
		TriggerAIGenerate, "mentions of abuse, neglect and violence", evalCtx())
	require.NoError(t, err)

	alerts, err := h.alerts.List(ctx, "tenant-a", nil)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

// A simulate-rollout rule cannot suppress escalation or the block.
func TestEvaluate_SafeguardingIgnoresRuleConfiguration(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.publish(t, func(r *rule.PolicyRule) {
		r.TriggerEvent = TriggerAIGenerate
		r.TriggerCondition = "safeguarding_recommended"
		r.Mode = rule.ModeEnforce
		r.BlockActions = true
		r.RolloutMode = rule.RolloutSimulate
	})

	decision, err := h.guardian.Evaluate(ctx,
		TriggerAIGenerate, "the draft mentions suicide", evalCtx())
	require.NoError(t, err)

	assert.True(t, decision.Blocked)

	alerts, err := h.alerts.List(ctx, "tenant-a", nil)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

// Two live rules on one trigger: the blocking one wins.
func TestEvaluate_MostRestrictiveWins(t *testing.T) {
	h := newTestHarness(t)

	blocking := h.publish(t, func(r *rule.PolicyRule) {
		r.Name = "blocking"
		r.Mode = rule.ModeEnforce
		r.BlockActions = true
		r.Remediation = "remove contact details before finalizing"
	})
	advisory := h.publish(t, func(r *rule.PolicyRule) {
		r.Name = "advisory"
		r.Remediation = "consider redacting contact details"
	})

	decision, err := h.guardian.Evaluate(context.Background(),
		TriggerAssessmentFinalize, "email me at jane@example.com", evalCtx())
	require.NoError(t, err)

	assert.True(t, decision.Blocked)
	assert.ElementsMatch(t, []types.ID{blocking.ID, advisory.ID}, decision.MatchedRuleIDs)
	assert.Contains(t, decision.Remediation, "remove contact details before finalizing")
}

// No combination of mode/block_actions on a simulate rule blocks.
func TestEvaluate_SimulateNeverBlocks(t *testing.T) {
	h := newTestHarness(t)

	simulated := h.publish(t, func(r *rule.PolicyRule) {
		r.Mode = rule.ModeEnforce
		r.BlockActions = true
		r.RolloutMode = rule.RolloutSimulate
	})

	decision, err := h.guardian.Evaluate(context.Background(),
		TriggerAssessmentFinalize, "email me at jane@example.com", evalCtx())
	require.NoError(t, err)

	assert.False(t, decision.Blocked)
	require.Len(t, decision.Simulated, 1)
	assert.Equal(t, simulated.ID, decision.Simulated[0].RuleID)
	assert.True(t, decision.Simulated[0].WouldBlock)
}

func TestEvaluate_OverrideReleasesBlockingRule(t *testing.T) {
	h := newTestHarness(t)

	blocking := h.publish(t, func(r *rule.PolicyRule) {
		r.Mode = rule.ModeEnforce
		r.BlockActions = true
		r.AllowOverride = true
	})

	ec := evalCtx()
	ec.Override = &OverrideRequest{
		RuleID:        blocking.ID,
		ActorID:       "senior-1",
		Justification: "contact details are required for the statutory notice",
	}

	decision, err := h.guardian.Evaluate(context.Background(),
		TriggerAssessmentFinalize, "email me at jane@example.com", ec)
	require.NoError(t, err)

	assert.False(t, decision.Blocked)
	require.NotNil(t, decision.OverriddenRule)
	assert.Equal(t, blocking.ID, *decision.OverriddenRule)
}

func TestEvaluate_OverrideRequiresJustificationAndPermission(t *testing.T) {
	h := newTestHarness(t)

	tests := []struct {
		name     string
		allow    bool
		override func(id types.ID) *OverrideRequest
	}{
		{
			name:  "no justification",
			allow: true,
			override: func(id types.ID) *OverrideRequest {
				return &OverrideRequest{RuleID: id, ActorID: "senior-1"}
			},
		},
		{
			name:  "rule forbids override",
			allow: false,
			override: func(id types.ID) *OverrideRequest {
				return &OverrideRequest{RuleID: id, ActorID: "senior-1", Justification: "required"}
			},
		},
		{
			name:  "wrong rule id",
			allow: true,
			override: func(id types.ID) *OverrideRequest {
				return &OverrideRequest{RuleID: types.NewID(), ActorID: "senior-1", Justification: "required"}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocking := h.publish(t, func(r *rule.PolicyRule) {
				r.Name = "blocking-" + tt.name
				r.TriggerEvent = "trigger." + tt.name
				r.Mode = rule.ModeEnforce
				r.BlockActions = true
				r.AllowOverride = tt.allow
			})

			ec := evalCtx()
			ec.Override = tt.override(blocking.ID)

			decision, err := h.guardian.Evaluate(context.Background(),
				blocking.TriggerEvent, "email me at jane@example.com", ec)
			require.NoError(t, err)
			assert.True(t, decision.Blocked)
		})
	}
}

// An override can never release a safeguarding block.
func TestEvaluate_OverrideNeverReleasesSafeguarding(t *testing.T) {
	h := newTestHarness(t)

	blocking := h.publish(t, func(r *rule.PolicyRule) {
		r.TriggerCondition = "safeguarding_recommended"
		r.Mode = rule.ModeEnforce
		r.BlockActions = true
		r.AllowOverride = true
	})

	ec := evalCtx()
	ec.Override = &OverrideRequest{
		RuleID:        blocking.ID,
		ActorID:       "senior-1",
		Justification: "please let this through",
	}

	decision, err := h.guardian.Evaluate(context.Background(),
		TriggerAssessmentFinalize, "history of abuse in the home", ec)
	require.NoError(t, err)

	assert.True(t, decision.Blocked)
	assert.Contains(t, decision.Remediation, SafeguardingMessage)
}

// Every evaluation writes exactly one audit entry carrying the decision.
func TestEvaluate_AuditCompleteness(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	decision, err := h.guardian.Evaluate(ctx,
		TriggerDocumentUpload, "worried about self-harm", evalCtx())
	require.NoError(t, err)

	entries, err := h.audits.List(ctx, audit.NewFilter("tenant-a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, TriggerDocumentUpload, entry.Action)
	assert.Equal(t, "caseworker-1", entry.ActorID)
	assert.Equal(t, decision.Blocked, entry.Metadata["blocked"])

	findings, ok := entry.Metadata["findings"].([]any)
	require.True(t, ok)
	assert.Len(t, findings, len(decision.Findings))
	assert.NotEmpty(t, entry.Metadata["alert_id"])
}

func TestEvaluate_ValidationErrors(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.guardian.Evaluate(context.Background(), TriggerDocumentUpload, "x", EvalContext{})
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	_, err = h.guardian.Evaluate(context.Background(), "", "x", evalCtx())
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
}

// failingRuleStore simulates an unreachable rule store.
type failingRuleStore struct{}

func (failingRuleStore) Publish(ctx context.Context, r *rule.PolicyRule, supersedesID *types.ID) (*rule.PolicyRule, error) {
	return nil, types.NewStorageUnavailableError("store down", nil)
}

func (failingRuleStore) ActiveRulesFor(ctx context.Context, triggerEvent, tenantID string) ([]*rule.PolicyRule, error) {
	return nil, types.NewStorageUnavailableError("store down", nil)
}

func (failingRuleStore) ListRules(ctx context.Context, tenantID string) ([]*rule.PolicyRule, error) {
	return nil, types.NewStorageUnavailableError("store down", nil)
}

func (failingRuleStore) Get(ctx context.Context, id types.ID) (*rule.PolicyRule, error) {
	return nil, types.NewStorageUnavailableError("store down", nil)
}

func (failingRuleStore) Retire(ctx context.Context, id types.ID) error {
	return types.NewStorageUnavailableError("store down", nil)
}

func (failingRuleStore) ImportRules(ctx context.Context, rules []*rule.PolicyRule) *rule.ImportResult {
	return &rule.ImportResult{}
}

// When the rule store is unreachable the baseline still enforces
// safeguarding, and the skipped rule checks are reported as unavailable.
func TestEvaluate_DegradesToBaselineWhenRulesUnavailable(t *testing.T) {
	h := newTestHarness(t)
	logger := quietLogger()

	degraded := New(failingRuleStore{}, detector.NewBuiltinRegistry(nil),
		NewEscalator(h.alerts, logger), h.audits, logger)

	decision, err := degraded.Evaluate(context.Background(),
		TriggerDocumentUpload, "concerns about neglect", evalCtx())
	require.NoError(t, err)

	assert.True(t, decision.Blocked)
	assert.True(t, decision.RuleChecksUnavailable)

	var unavailable bool
	for _, f := range decision.Findings {
		if f.Type == detector.TypeRuleUnavailable {
			unavailable = true
		}
	}
	assert.True(t, unavailable, "skipped rule checks should be reported, not silently dropped")
}

// panickyDetector is a buggy detector; its contribution is dropped.
type panickyDetector struct{}

func (panickyDetector) Name() string { return "panicky" }

func (panickyDetector) Check(ctx context.Context, content string, ec detector.Context) []detector.Finding {
	panic("bug")
}

func TestEvaluate_DetectorPanicIsIsolated(t *testing.T) {
	h := newTestHarness(t)
	logger := quietLogger()

	registry := detector.NewBuiltinRegistry(nil)
	registry.Register("broken_check", panickyDetector{})

	engine := New(h.rules, registry, NewEscalator(h.alerts, logger), h.audits, logger)

	h.publish(t, func(r *rule.PolicyRule) {
		r.TriggerCondition = "broken_check"
	})

	decision, err := engine.Evaluate(context.Background(),
		TriggerAssessmentFinalize, "email me at jane@example.com", evalCtx())
	require.NoError(t, err)

	// The PII baseline finding survives the broken detector.
	require.Len(t, decision.Findings, 1)
	assert.Equal(t, detector.TypePIILeak, decision.Findings[0].Type)
}
