package guardian

import (
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/detector"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/rule"
)

// decide combines aggregated findings with the configuration of each
// matched rule into the final blocked flag and remediation guidance.
//
// Precedence, most binding first:
//  1. a safeguarding finding blocks unconditionally, regardless of any
//     rule's mode or rollout mode
//  2. simulate-rollout rules are recorded but never block
//  3. live advisory rules surface their finding without blocking
//  4. live enforce rules with block_actions block unless the caller's
//     override names the rule, the rule allows overrides, and a
//     justification was given
//  5. across rules the most restrictive outcome wins
func decide(findings []detector.Finding, byCondition map[string][]detector.Finding, matched []*rule.PolicyRule, override *OverrideRequest) Decision {
	decision := Decision{Findings: findings}

	for _, r := range matched {
		decision.MatchedRuleIDs = append(decision.MatchedRuleIDs, r.ID)
	}

	safeguarding := false
	for _, f := range findings {
		if f.Type == detector.TypeSafeguarding {
			safeguarding = true
			break
		}
	}
	if safeguarding {
		decision.Blocked = true
		decision.Remediation = append(decision.Remediation, SafeguardingMessage)
	}

	for _, r := range matched {
		// A rule only affects the outcome when its bound condition
		// actually produced findings in this evaluation.
		if len(byCondition[r.TriggerCondition]) == 0 {
			continue
		}

		wouldBlock := r.Mode == rule.ModeEnforce && r.BlockActions

		if r.RolloutMode == rule.RolloutSimulate {
			decision.Simulated = append(decision.Simulated, SimulatedOutcome{
				RuleID:     r.ID,
				RuleName:   r.Name,
				WouldBlock: wouldBlock,
			})
			continue
		}

		if r.Remediation != "" {
			decision.Remediation = append(decision.Remediation, r.Remediation)
		}

		if !wouldBlock {
			continue
		}

		if overrideApplies(r, override) {
			id := r.ID
			decision.OverriddenRule = &id
			continue
		}
		decision.Blocked = true
	}

	return decision
}

// overrideApplies reports whether the caller's override releases rule r.
// Safeguarding blocks are handled before rules are consulted, so an
// override can never release one.
func overrideApplies(r *rule.PolicyRule, override *OverrideRequest) bool {
	if override == nil || !r.AllowOverride {
		return false
	}
	if override.RuleID != r.ID || override.Justification == "" {
		return false
	}
	return true
}
