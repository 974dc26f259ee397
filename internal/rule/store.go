package rule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/database"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Store is the versioned, append-only repository of policy rules.
type Store interface {
	// Publish inserts a new rule version. With supersedesID set, the
	// superseded version is deprecated and the new version inserted as one
	// atomic unit; the call fails with a conflict error if the superseded
	// version is not currently active.
	Publish(ctx context.Context, r *PolicyRule, supersedesID *types.ID) (*PolicyRule, error)

	// ActiveRulesFor returns the active, enabled rules matching the trigger
	// event, scoped to the tenant plus shared jurisdiction-pack rules.
	ActiveRulesFor(ctx context.Context, triggerEvent, tenantID string) ([]*PolicyRule, error)

	// ListRules returns every version of every rule for a tenant.
	ListRules(ctx context.Context, tenantID string) ([]*PolicyRule, error)

	// Get returns a single rule version by id.
	Get(ctx context.Context, id types.ID) (*PolicyRule, error)

	// Retire deprecates the active head of a lineage without a successor.
	Retire(ctx context.Context, id types.ID) error

	// ImportRules bulk-publishes rules, each as a fresh version 1 lineage.
	// Best effort: one failure does not abort the rest, and every failure
	// is reported with the offending rule's name.
	ImportRules(ctx context.Context, rules []*PolicyRule) *ImportResult
}

// ImportError reports one failed rule within a bulk import.
type ImportError struct {
	RuleName string `json:"rule_name"`
	Index    int    `json:"index"`
	Err      error  `json:"-"`
	Message  string `json:"message"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Published []*PolicyRule `json:"published"`
	Failed    []ImportError `json:"failed"`
}

// DBRuleStore implements Store over SQLite.
type DBRuleStore struct {
	db     *database.DB
	tracer trace.Tracer
}

// NewDBRuleStore creates a rule store backed by db.
func NewDBRuleStore(db *database.DB) *DBRuleStore {
	return &DBRuleStore{db: db}
}

// WithTracer sets the OpenTelemetry tracer for the store.
func (s *DBRuleStore) WithTracer(tracer trace.Tracer) *DBRuleStore {
	s.tracer = tracer
	return s
}

const ruleColumns = `
	id, version, previous_rule_id, status, name,
	trigger_event, trigger_condition, applies_to_actions,
	severity, mode, rollout_mode, block_actions, allow_override, enabled,
	remediation, tenant_id, jurisdiction, created_at, updated_at
`

// Publish inserts a new rule version, atomically deprecating the superseded
// version when one is named. Uses optimistic concurrency: the deprecate
// update is conditional on status still being active, so a racing publish
// loses with a conflict error instead of silently double-activating.
func (s *DBRuleStore) Publish(ctx context.Context, r *PolicyRule, supersedesID *types.ID) (*PolicyRule, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	published := *r
	published.ID = types.NewID()
	published.Status = StatusActive
	now := time.Now().UTC()
	published.CreatedAt = now
	published.UpdatedAt = now

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if supersedesID != nil {
			var prevVersion int
			var prevStatus string
			row := tx.QueryRowContext(ctx,
				"SELECT version, status FROM policy_rules WHERE id = ?", supersedesID.String())
			if err := row.Scan(&prevVersion, &prevStatus); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return types.NewValidationError(
						fmt.Sprintf("superseded rule %s not found", supersedesID), nil)
				}
				return types.NewStorageUnavailableError("failed to load superseded rule", err)
			}
			if Status(prevStatus) != StatusActive {
				return types.NewConflictError(
					fmt.Sprintf("rule %s is %s, not active; reload and retry", supersedesID, prevStatus))
			}

			res, err := tx.ExecContext(ctx,
				"UPDATE policy_rules SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
				StatusDeprecated, now, supersedesID.String(), StatusActive)
			if err != nil {
				return types.NewStorageUnavailableError("failed to deprecate superseded rule", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			if affected != 1 {
				// Another publish deprecated it between the read and the swap.
				return types.NewConflictError(
					fmt.Sprintf("rule %s was superseded concurrently; reload and retry", supersedesID))
			}

			published.Version = prevVersion + 1
			published.PreviousRuleID = supersedesID
		} else {
			published.Version = 1
			published.PreviousRuleID = nil
		}

		return s.insertRule(ctx, tx, &published)
	})
	if err != nil {
		return nil, err
	}
	return &published, nil
}

func (s *DBRuleStore) insertRule(ctx context.Context, tx *sql.Tx, r *PolicyRule) error {
	appliesJSON, err := json.Marshal(r.AppliesToActions)
	if err != nil {
		return fmt.Errorf("failed to marshal applies_to_actions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO policy_rules (
			id, version, previous_rule_id, status, name,
			trigger_event, trigger_condition, applies_to_actions,
			severity, mode, rollout_mode, block_actions, allow_override, enabled,
			remediation, tenant_id, jurisdiction, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID.String(),
		r.Version,
		nullableID(r.PreviousRuleID),
		r.Status,
		r.Name,
		r.TriggerEvent,
		r.TriggerCondition,
		string(appliesJSON),
		r.Severity,
		r.Mode,
		r.RolloutMode,
		r.BlockActions,
		r.AllowOverride,
		r.Enabled,
		r.Remediation,
		r.TenantID,
		r.Jurisdiction,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return types.NewStorageUnavailableError("failed to insert rule", err)
	}
	return nil
}

// ActiveRulesFor returns active, enabled rules whose applies_to_actions
// contains the trigger event, for the tenant plus the shared scope. Reads
// run under SQLite snapshot isolation, so a concurrent publish is observed
// either fully or not at all.
func (s *DBRuleStore) ActiveRulesFor(ctx context.Context, triggerEvent, tenantID string) ([]*PolicyRule, error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "rulestore.active_rules",
			trace.WithAttributes(
				attribute.String("trigger_event", triggerEvent),
				attribute.String("tenant_id", tenantID),
			),
		)
		defer span.End()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM policy_rules
		WHERE status = ? AND enabled = 1 AND tenant_id IN (?, ?)
		ORDER BY created_at
	`, StatusActive, tenantID, SharedTenant)
	if err != nil {
		return nil, types.NewStorageUnavailableError("failed to query active rules", err)
	}
	defer rows.Close()

	var matched []*PolicyRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		if r.AppliesTo(triggerEvent) {
			matched = append(matched, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageUnavailableError("failed to iterate active rules", err)
	}
	return matched, nil
}

// ListRules returns every rule version for a tenant, newest lineage first.
func (s *DBRuleStore) ListRules(ctx context.Context, tenantID string) ([]*PolicyRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM policy_rules
		WHERE tenant_id IN (?, ?)
		ORDER BY name, version DESC
	`, tenantID, SharedTenant)
	if err != nil {
		return nil, types.NewStorageUnavailableError("failed to query rules", err)
	}
	defer rows.Close()

	var rules []*PolicyRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageUnavailableError("failed to iterate rules", err)
	}
	return rules, nil
}

// Get returns a single rule version by id.
func (s *DBRuleStore) Get(ctx context.Context, id types.ID) (*PolicyRule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM policy_rules
		WHERE id = ?
	`, id.String())

	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewValidationError(fmt.Sprintf("rule %s not found", id), nil)
		}
		return nil, err
	}
	return r, nil
}

// Retire deprecates the active head of a lineage, ending it without a
// successor. Fails with a conflict error if the rule is not active.
func (s *DBRuleStore) Retire(ctx context.Context, id types.ID) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE policy_rules SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
			StatusDeprecated, time.Now().UTC(), id.String(), StatusActive)
		if err != nil {
			return types.NewStorageUnavailableError("failed to retire rule", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected != 1 {
			return types.NewConflictError(fmt.Sprintf("rule %s is not active", id))
		}
		return nil
	})
}

// ImportRules bulk-publishes rules as fresh lineages, best effort per rule.
func (s *DBRuleStore) ImportRules(ctx context.Context, rules []*PolicyRule) *ImportResult {
	result := &ImportResult{}
	for i, r := range rules {
		published, err := s.Publish(ctx, r, nil)
		if err != nil {
			result.Failed = append(result.Failed, ImportError{
				RuleName: r.Name,
				Index:    i,
				Err:      err,
				Message:  err.Error(),
			})
			continue
		}
		result.Published = append(result.Published, published)
	}
	return result
}

// scanner abstracts sql.Row and sql.Rows for scanRule.
type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*PolicyRule, error) {
	var r PolicyRule
	var previousID sql.NullString
	var appliesJSON string
	var remediation sql.NullString

	err := row.Scan(
		&r.ID,
		&r.Version,
		&previousID,
		&r.Status,
		&r.Name,
		&r.TriggerEvent,
		&r.TriggerCondition,
		&appliesJSON,
		&r.Severity,
		&r.Mode,
		&r.RolloutMode,
		&r.BlockActions,
		&r.AllowOverride,
		&r.Enabled,
		&remediation,
		&r.TenantID,
		&r.Jurisdiction,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, types.NewStorageUnavailableError("failed to scan rule", err)
	}

	if previousID.Valid {
		id := types.ID(previousID.String)
		r.PreviousRuleID = &id
	}
	if remediation.Valid {
		r.Remediation = remediation.String
	}
	if err := json.Unmarshal([]byte(appliesJSON), &r.AppliesToActions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal applies_to_actions: %w", err)
	}
	return &r, nil
}

func nullableID(id *types.ID) any {
	if id == nil || id.IsZero() {
		return nil
	}
	return id.String()
}
