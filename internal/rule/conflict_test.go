package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishRule(t *testing.T, store *DBRuleStore, mutate func(*PolicyRule)) *PolicyRule {
	t.Helper()
	r := makeRule("rule")
	mutate(r)
	published, err := store.Publish(context.Background(), r, nil)
	require.NoError(t, err)
	return published
}

func TestDetectConflicts_AmbiguousRemediation(t *testing.T) {
	store := newTestStore(t)

	publishRule(t, store, func(r *PolicyRule) {
		r.Name = "block-a"
		r.Mode = ModeEnforce
		r.BlockActions = true
		r.Remediation = "do A"
	})
	publishRule(t, store, func(r *PolicyRule) {
		r.Name = "block-b"
		r.Mode = ModeEnforce
		r.BlockActions = true
		r.Remediation = "do B"
	})

	conflicts, err := NewConflictAuditor(store).DetectConflicts(context.Background(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictAmbiguousRemediation, conflicts[0].Kind)
	assert.ElementsMatch(t, []string{"block-a", "block-b"}, conflicts[0].RuleNames)
}

func TestDetectConflicts_ShadowedSimulation(t *testing.T) {
	store := newTestStore(t)

	publishRule(t, store, func(r *PolicyRule) {
		r.Name = "simulated"
		r.RolloutMode = RolloutSimulate
	})
	publishRule(t, store, func(r *PolicyRule) {
		r.Name = "live"
	})

	conflicts, err := NewConflictAuditor(store).DetectConflicts(context.Background(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictShadowedSimulation, conflicts[0].Kind)
	assert.Equal(t, []string{"simulated", "live"}, conflicts[0].RuleNames)
}

func TestDetectConflicts_NoConflicts(t *testing.T) {
	store := newTestStore(t)

	publishRule(t, store, func(r *PolicyRule) {
		r.Name = "advisory-one"
	})
	publishRule(t, store, func(r *PolicyRule) {
		r.Name = "enforce-upload"
		r.TriggerEvent = "document.upload"
		r.TriggerCondition = "pii_leak"
		r.Mode = ModeEnforce
		r.BlockActions = true
	})

	conflicts, err := NewConflictAuditor(store).DetectConflicts(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetectConflicts_IgnoresDeprecated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	v1 := publishRule(t, store, func(r *PolicyRule) {
		r.Name = "block-a"
		r.Mode = ModeEnforce
		r.BlockActions = true
		r.Remediation = "do A"
	})
	publishRule(t, store, func(r *PolicyRule) {
		r.Name = "block-b"
		r.Mode = ModeEnforce
		r.BlockActions = true
		r.Remediation = "do B"
	})

	require.NoError(t, store.Retire(ctx, v1.ID))

	conflicts, err := NewConflictAuditor(store).DetectConflicts(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
