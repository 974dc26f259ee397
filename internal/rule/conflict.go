package rule

import (
	"context"
	"fmt"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// ConflictKind classifies a rule conflict.
type ConflictKind string

const (
	// ConflictAmbiguousRemediation: two blocking rules share a trigger event
	// but give the user different remediation guidance.
	ConflictAmbiguousRemediation ConflictKind = "ambiguous_remediation"

	// ConflictShadowedSimulation: a simulated rule shares a trigger
	// condition with a live rule, so the simulation's protection is
	// illusory while the live rule already decides the outcome.
	ConflictShadowedSimulation ConflictKind = "shadowed_simulation"
)

// Conflict describes one operator-actionable inconsistency between active
// rules. Conflicts never block anything by themselves.
type Conflict struct {
	Kind        ConflictKind `json:"kind"`
	RuleIDs     []types.ID   `json:"rule_ids"`
	RuleNames   []string     `json:"rule_names"`
	Description string       `json:"description"`
}

// ConflictAuditor scans the active rule set for contradictory
// configurations. Intended to run on a schedule or on operator demand.
type ConflictAuditor struct {
	store Store
}

// NewConflictAuditor creates a conflict auditor over the given store.
func NewConflictAuditor(store Store) *ConflictAuditor {
	return &ConflictAuditor{store: store}
}

// DetectConflicts reports conflicts among a tenant's active rules.
func (a *ConflictAuditor) DetectConflicts(ctx context.Context, tenantID string) ([]Conflict, error) {
	all, err := a.store.ListRules(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var active []*PolicyRule
	for _, r := range all {
		if r.Status == StatusActive && r.Enabled {
			active = append(active, r)
		}
	}

	var conflicts []Conflict
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a.checkPair(active[i], active[j], &conflicts)
		}
	}
	return conflicts, nil
}

func (a *ConflictAuditor) checkPair(x, y *PolicyRule, conflicts *[]Conflict) {
	if c := ambiguousRemediation(x, y); c != nil {
		*conflicts = append(*conflicts, *c)
	}
	if c := shadowedSimulation(x, y); c != nil {
		*conflicts = append(*conflicts, *c)
	}
	if c := shadowedSimulation(y, x); c != nil {
		*conflicts = append(*conflicts, *c)
	}
}

func ambiguousRemediation(x, y *PolicyRule) *Conflict {
	if x.TriggerEvent != y.TriggerEvent {
		return nil
	}
	if x.Mode != ModeEnforce || y.Mode != ModeEnforce || !x.BlockActions || !y.BlockActions {
		return nil
	}
	if x.Remediation == y.Remediation {
		return nil
	}
	return &Conflict{
		Kind:      ConflictAmbiguousRemediation,
		RuleIDs:   []types.ID{x.ID, y.ID},
		RuleNames: []string{x.Name, y.Name},
		Description: fmt.Sprintf(
			"rules %q and %q both block %s but disagree on remediation guidance",
			x.Name, y.Name, x.TriggerEvent),
	}
}

// shadowedSimulation reports sim when it simulates a condition that live
// already enforces on the same trigger.
func shadowedSimulation(sim, live *PolicyRule) *Conflict {
	if sim.RolloutMode != RolloutSimulate || live.RolloutMode != RolloutLive {
		return nil
	}
	if sim.TriggerEvent != live.TriggerEvent || sim.TriggerCondition != live.TriggerCondition {
		return nil
	}
	return &Conflict{
		Kind:      ConflictShadowedSimulation,
		RuleIDs:   []types.ID{sim.ID, live.ID},
		RuleNames: []string{sim.Name, live.Name},
		Description: fmt.Sprintf(
			"simulated rule %q is shadowed by live rule %q on %s/%s; its rollout results reflect the live rule's enforcement",
			sim.Name, live.Name, sim.TriggerEvent, sim.TriggerCondition),
	}
}
