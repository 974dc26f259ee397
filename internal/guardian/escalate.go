package guardian

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/alert"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/detector"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// Escalator raises one alert per evaluation containing safeguarding
// findings. Escalation is not suppressible by rule configuration, rollout
// mode, or override.
type Escalator struct {
	alerts alert.Store
	logger *slog.Logger

	retryInterval time.Duration
	maxAttempts   int
}

// NewEscalator creates an escalator writing to the given alert store.
func NewEscalator(alerts alert.Store, logger *slog.Logger) *Escalator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Escalator{
		alerts:        alerts,
		logger:        logger,
		retryInterval: 5 * time.Second,
		maxAttempts:   10,
	}
}

// Escalate creates exactly one alert summarizing the safeguarding findings,
// deduped within the evaluation. Returns the alert, or nil when no
// safeguarding finding is present. A store failure is logged at error level
// and retried in the background; it is never surfaced to the evaluation.
func (e *Escalator) Escalate(ctx context.Context, findings []detector.Finding, ec EvalContext) *alert.Alert {
	var messages []string
	for _, f := range findings {
		if f.Type == detector.TypeSafeguarding {
			messages = append(messages, f.Message)
		}
	}
	if len(messages) == 0 {
		return nil
	}

	targetID := ec.TargetID
	if targetID == "" {
		targetID = ec.ResourceID
	}

	a := &alert.Alert{
		ID:       types.NewID(),
		TenantID: ec.TenantID,
		Type:     alert.TypeSafeguardingTrigger,
		TargetID: targetID,
		Details:  strings.Join(messages, "; "),
		Status:   alert.StatusNew,
	}

	if err := e.alerts.Create(ctx, a); err != nil {
		e.logger.ErrorContext(ctx, "safeguarding alert write failed, scheduling retry",
			"code", string(types.STORAGE_AUDIT_LOSS_RISK),
			"tenant_id", ec.TenantID,
			"target_id", targetID,
			"error", err,
		)
		go e.retry(a)
	}
	return a
}

// retry re-attempts the alert write at-least-once, detached from the
// evaluation's context so a finished request cannot cancel it.
func (e *Escalator) retry(a *alert.Alert) {
	ctx := context.Background()
	for attempt := 2; attempt <= e.maxAttempts; attempt++ {
		time.Sleep(e.retryInterval)
		if err := e.alerts.Create(ctx, a); err == nil {
			e.logger.Info("safeguarding alert recovered after retry",
				"alert_id", a.ID.String(),
				"attempts", attempt,
			)
			return
		}
	}
	e.logger.Error("safeguarding alert lost after exhausting retries",
		"code", string(types.STORAGE_AUDIT_LOSS_RISK),
		"alert_id", a.ID.String(),
		"tenant_id", a.TenantID,
		"details", fmt.Sprintf("%.200s", a.Details),
	)
}
