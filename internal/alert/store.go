package alert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/database"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// DBAlertStore implements Store over SQLite.
type DBAlertStore struct {
	db *database.DB
}

// NewDBAlertStore creates an alert store backed by db.
func NewDBAlertStore(db *database.DB) *DBAlertStore {
	return &DBAlertStore{db: db}
}

// Create inserts a new alert. Status defaults to new.
func (s *DBAlertStore) Create(ctx context.Context, a *Alert) error {
	if a.TenantID == "" {
		return types.NewValidationError("alert tenant id is required", nil)
	}
	if a.ID.IsZero() {
		a.ID = types.NewID()
	}
	if a.Status == "" {
		a.Status = StatusNew
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, tenant_id, type, target_id, details, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID.String(),
		a.TenantID,
		a.Type,
		a.TargetID,
		a.Details,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return types.NewStorageUnavailableError("failed to create alert", err)
	}
	return nil
}

// Get returns an alert by id.
func (s *DBAlertStore) Get(ctx context.Context, id types.ID) (*Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, type, target_id, details, status, created_at, updated_at
		FROM alerts WHERE id = ?
	`, id.String())

	var a Alert
	err := row.Scan(&a.ID, &a.TenantID, &a.Type, &a.TargetID, &a.Details, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewValidationError(fmt.Sprintf("alert %s not found", id), nil)
		}
		return nil, types.NewStorageUnavailableError("failed to load alert", err)
	}
	return &a, nil
}

// List returns a tenant's alerts, optionally filtered by status, newest
// first.
func (s *DBAlertStore) List(ctx context.Context, tenantID string, status *Status) ([]*Alert, error) {
	query := `
		SELECT id, tenant_id, type, target_id, details, status, created_at, updated_at
		FROM alerts WHERE tenant_id = ?
	`
	args := []any{tenantID}
	if status != nil {
		query += " AND status = ?"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewStorageUnavailableError("failed to query alerts", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		var a Alert
		err := rows.Scan(&a.ID, &a.TenantID, &a.Type, &a.TargetID, &a.Details, &a.Status, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, types.NewStorageUnavailableError("failed to scan alert", err)
		}
		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStorageUnavailableError("failed to iterate alerts", err)
	}
	return alerts, nil
}

// UpdateStatus moves an alert through the review lifecycle.
func (s *DBAlertStore) UpdateStatus(ctx context.Context, id types.ID, status Status) error {
	switch status {
	case StatusNew, StatusReviewed, StatusClosed:
	default:
		return types.NewValidationError(fmt.Sprintf("invalid alert status %q", status), nil)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE alerts SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id.String())
	if err != nil {
		return types.NewStorageUnavailableError("failed to update alert status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected != 1 {
		return types.NewValidationError(fmt.Sprintf("alert %s not found", id), nil)
	}
	return nil
}
