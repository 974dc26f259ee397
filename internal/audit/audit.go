package audit

import (
	"context"
	"time"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Entry is one immutable provenance record. Entries are written once per
// evaluation (and per other audited action) and never mutated or deleted.
type Entry struct {
	ID           types.ID       `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	ActorID      string         `json:"actor_id,omitempty"`
	Details      string         `json:"details,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Sink records provenance entries.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Filter narrows List queries for audit export.
type Filter struct {
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Limit        int
}

// NewFilter creates a filter for a tenant.
func NewFilter(tenantID string) *Filter {
	return &Filter{TenantID: tenantID}
}

// WithAction filters by action name.
func (f *Filter) WithAction(action string) *Filter {
	f.Action = action
	return f
}

// WithResource filters by resource type and id.
func (f *Filter) WithResource(resourceType, resourceID string) *Filter {
	f.ResourceType = resourceType
	f.ResourceID = resourceID
	return f
}

// WithDateRange filters by creation time.
func (f *Filter) WithDateRange(from, to time.Time) *Filter {
	f.From = &from
	f.To = &to
	return f
}

// WithLimit caps the number of returned entries.
func (f *Filter) WithLimit(limit int) *Filter {
	f.Limit = limit
	return f
}
