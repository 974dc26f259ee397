package rule

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

//go:embed packs/*.yaml
var packFS embed.FS

// Pack is a jurisdiction starter pack of guardrail rules.
type Pack struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	Jurisdiction string     `yaml:"jurisdiction"`
	Rules        []PackRule `yaml:"rules"`
}

// PackRule is the YAML shape of one pack member.
type PackRule struct {
	Name             string   `yaml:"name"`
	TriggerEvent     string   `yaml:"trigger_event"`
	TriggerCondition string   `yaml:"trigger_condition"`
	AppliesToActions []string `yaml:"applies_to_actions,omitempty"`
	Severity         string   `yaml:"severity"`
	Mode             string   `yaml:"mode"`
	BlockActions     bool     `yaml:"block_actions"`
	AllowOverride    bool     `yaml:"allow_override"`
	Remediation      string   `yaml:"remediation"`
}

// PackIDs returns the ids of the embedded jurisdiction packs, sorted.
func PackIDs() []string {
	entries, err := fs.ReadDir(packFS, "packs")
	if err != nil {
		return nil
	}
	var ids []string
	for _, entry := range entries {
		ids = append(ids, strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
	}
	sort.Strings(ids)
	return ids
}

// LoadPack reads an embedded jurisdiction pack by id.
func LoadPack(id string) (*Pack, error) {
	data, err := packFS.ReadFile(path.Join("packs", id+".yaml"))
	if err != nil {
		return nil, types.NewValidationError(fmt.Sprintf("unknown jurisdiction pack %q", id), err)
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %q: %w", id, err)
	}
	return &pack, nil
}

// PolicyRules converts the pack members into publishable rules for a tenant.
// Pack rules always start live: a pack import is an explicit opt-in.
func (p *Pack) PolicyRules(tenantID string) []*PolicyRule {
	rules := make([]*PolicyRule, 0, len(p.Rules))
	for _, pr := range p.Rules {
		rules = append(rules, &PolicyRule{
			Name:             pr.Name,
			TriggerEvent:     pr.TriggerEvent,
			TriggerCondition: pr.TriggerCondition,
			AppliesToActions: pr.AppliesToActions,
			Severity:         Severity(pr.Severity),
			Mode:             Mode(pr.Mode),
			RolloutMode:      RolloutLive,
			BlockActions:     pr.BlockActions,
			AllowOverride:    pr.AllowOverride,
			Enabled:          true,
			Remediation:      pr.Remediation,
			TenantID:         tenantID,
			Jurisdiction:     p.Jurisdiction,
		})
	}
	return rules
}

// ImportPack loads an embedded pack and bulk-publishes its rules for the
// tenant. Best effort per rule; failures are reported in the result.
func ImportPack(ctx context.Context, store Store, packID, tenantID string) (*ImportResult, error) {
	pack, err := LoadPack(packID)
	if err != nil {
		return nil, err
	}
	return store.ImportRules(ctx, pack.PolicyRules(tenantID)), nil
}
