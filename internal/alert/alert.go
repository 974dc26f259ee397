package alert

import (
	"context"
	"time"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Status represents the review state of an alert.
type Status string

const (
	StatusNew      Status = "new"
	StatusReviewed Status = "reviewed"
	StatusClosed   Status = "closed"
)

// TypeSafeguardingTrigger marks alerts raised by the escalator for
// safeguarding-class findings.
const TypeSafeguardingTrigger = "safeguarding_trigger"

// Alert is a human-reviewable escalation record. Created exclusively by the
// escalator; only reviewers move it through the status lifecycle.
type Alert struct {
	ID        types.ID  `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Type      string    `json:"type"`
	TargetID  string    `json:"target_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists alerts for the review queue.
type Store interface {
	Create(ctx context.Context, a *Alert) error
	Get(ctx context.Context, id types.ID) (*Alert, error)
	List(ctx context.Context, tenantID string, status *Status) ([]*Alert, error)
	UpdateStatus(ctx context.Context, id types.ID, status Status) error
}
