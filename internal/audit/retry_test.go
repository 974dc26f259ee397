package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySink fails the first failures writes, then succeeds.
type flakySink struct {
	mu       sync.Mutex
	failures int
	recorded []Entry
}

func (s *flakySink) Record(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("store unreachable")
	}
	s.recorded = append(s.recorded, entry)
	return nil
}

func (s *flakySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetryingSink_PassThrough(t *testing.T) {
	delegate := &flakySink{}
	sink := NewRetryingSink(delegate, quietLogger())
	defer sink.Close()

	require.NoError(t, sink.Record(context.Background(), Entry{TenantID: "t", Action: "a"}))
	assert.Equal(t, 1, delegate.count())
}

// A failed write never surfaces to the caller; the entry is recovered by
// the background worker.
func TestRetryingSink_RecoversAfterFailure(t *testing.T) {
	delegate := &flakySink{failures: 2}
	sink := NewRetryingSink(delegate, quietLogger(),
		WithRetryInterval(10*time.Millisecond),
		WithMaxAttempts(5),
	)
	defer sink.Close()

	require.NoError(t, sink.Record(context.Background(), Entry{TenantID: "t", Action: "a"}))
	assert.Equal(t, 0, delegate.count())

	require.Eventually(t, func() bool {
		return delegate.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRetryingSink_GivesUpAfterMaxAttempts(t *testing.T) {
	delegate := &flakySink{failures: 100}
	sink := NewRetryingSink(delegate, quietLogger(),
		WithRetryInterval(5*time.Millisecond),
		WithMaxAttempts(3),
	)
	defer sink.Close()

	require.NoError(t, sink.Record(context.Background(), Entry{TenantID: "t", Action: "a"}))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, delegate.count())
}

func TestRetryingSink_CloseIsIdempotent(t *testing.T) {
	sink := NewRetryingSink(&flakySink{}, quietLogger())
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
}
