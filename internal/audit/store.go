package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/database"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// DBAuditStore persists audit entries in SQLite. Append-only: there are no
// update or delete paths.
type DBAuditStore struct {
	db *database.DB
}

// NewDBAuditStore creates an audit store backed by db.
func NewDBAuditStore(db *database.DB) *DBAuditStore {
	return &DBAuditStore{db: db}
}

// Record appends one entry.
func (s *DBAuditStore) Record(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = types.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, tenant_id, action, resource_type, resource_id,
			actor_id, details, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID.String(),
		entry.TenantID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.ActorID,
		entry.Details,
		string(metadataJSON),
		entry.CreatedAt,
	)
	if err != nil {
		return types.NewStorageUnavailableError("failed to append audit entry", err)
	}
	return nil
}

// List returns entries matching the filter, newest first.
func (s *DBAuditStore) List(ctx context.Context, filter *Filter) ([]Entry, error) {
	if filter == nil {
		return nil, types.NewValidationError("audit filter is required", nil)
	}
	if filter.TenantID == "" {
		return nil, types.NewValidationError("audit filter requires a tenant id", nil)
	}

	query := `
		SELECT id, tenant_id, action, resource_type, resource_id,
		       actor_id, details, metadata, created_at
		FROM audit_entries
		WHERE tenant_id = ?
	`
	args := []any{filter.TenantID}

	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.ResourceType != "" {
		query += " AND resource_type = ?"
		args = append(args, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query += " AND resource_id = ?"
		args = append(args, filter.ResourceID)
	}
	if filter.From != nil {
		query += " AND created_at >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += " AND created_at <= ?"
		args = append(args, *filter.To)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewStorageUnavailableError("failed to query audit entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var metadataJSON string
		err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&entry.ActorID,
			&entry.Details,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, types.NewStorageUnavailableError("failed to scan audit entry", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageUnavailableError("failed to iterate audit entries", err)
	}
	return entries, nil
}
