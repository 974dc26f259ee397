package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

// RetryingSink wraps a Sink with asynchronous at-least-once retry. A failed
// write is logged at error level with an audit-loss code and requeued in the
// background; Record itself never returns the failure to the caller, so an
// audit outage cannot change or delay an already-decided enforcement
// outcome. The trade-off (audit completeness vs. availability of the gated
// action) is deliberate: the decision has already been made and must be
// honored; the log line is what keeps the loss from being silent.
type RetryingSink struct {
	delegate Sink
	logger   *slog.Logger

	interval    time.Duration
	maxAttempts int

	mu      sync.Mutex
	pending chan retryItem
	group   *errgroup.Group
	cancel  context.CancelFunc
	closed  bool
}

type retryItem struct {
	entry    Entry
	attempts int
}

// RetryOption configures a RetryingSink.
type RetryOption func(*RetryingSink)

// WithRetryInterval sets the delay between retry attempts.
func WithRetryInterval(interval time.Duration) RetryOption {
	return func(s *RetryingSink) { s.interval = interval }
}

// WithMaxAttempts caps retry attempts per entry before the entry is
// abandoned (with a final error log).
func WithMaxAttempts(attempts int) RetryOption {
	return func(s *RetryingSink) { s.maxAttempts = attempts }
}

// NewRetryingSink creates a retrying sink and starts its background worker.
func NewRetryingSink(delegate Sink, logger *slog.Logger, opts ...RetryOption) *RetryingSink {
	if logger == nil {
		logger = slog.Default()
	}

	s := &RetryingSink{
		delegate:    delegate,
		logger:      logger,
		interval:    5 * time.Second,
		maxAttempts: 10,
		pending:     make(chan retryItem, 256),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.group, ctx = errgroup.WithContext(ctx)
	s.group.Go(func() error {
		s.worker(ctx)
		return nil
	})
	return s
}

// Record attempts the write once synchronously; on failure it logs the loss
// risk and schedules retries. Always returns nil.
func (s *RetryingSink) Record(ctx context.Context, entry Entry) error {
	err := s.delegate.Record(ctx, entry)
	if err == nil {
		return nil
	}

	s.logger.ErrorContext(ctx, "audit write failed, scheduling retry",
		"code", string(types.STORAGE_AUDIT_LOSS_RISK),
		"action", entry.Action,
		"tenant_id", entry.TenantID,
		"error", err,
	)
	s.enqueue(retryItem{entry: entry, attempts: 1})
	return nil
}

func (s *RetryingSink) enqueue(item retryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Error("audit entry dropped, sink closed",
			"code", string(types.STORAGE_AUDIT_LOSS_RISK),
			"action", item.entry.Action,
		)
		return
	}
	select {
	case s.pending <- item:
	default:
		s.logger.Error("audit retry queue full, entry dropped",
			"code", string(types.STORAGE_AUDIT_LOSS_RISK),
			"action", item.entry.Action,
		)
	}
}

func (s *RetryingSink) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-s.pending:
			if !ok {
				return
			}
			s.retry(ctx, item)
		}
	}
}

func (s *RetryingSink) retry(ctx context.Context, item retryItem) {
	for item.attempts < s.maxAttempts {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}

		if err := s.delegate.Record(ctx, item.entry); err == nil {
			s.logger.InfoContext(ctx, "audit entry recovered after retry",
				"action", item.entry.Action,
				"attempts", item.attempts+1,
			)
			return
		}
		item.attempts++
	}

	s.logger.ErrorContext(ctx, "audit entry lost after exhausting retries",
		"code", string(types.STORAGE_AUDIT_LOSS_RISK),
		"action", item.entry.Action,
		"tenant_id", item.entry.TenantID,
		"attempts", item.attempts,
	)
}

// Close stops the background worker. Entries still pending when the worker
// stops are not retried further.
func (s *RetryingSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.group.Wait()
}
