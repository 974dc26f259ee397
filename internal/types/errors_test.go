package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardianError_Format(t *testing.T) {
	err := NewValidationError("rule name is required", nil)
	assert.Equal(t, "[VALIDATION_FAILED] rule name is required", err.Error())

	cause := errors.New("disk full")
	err = NewStorageUnavailableError("cannot open store", cause)
	assert.Equal(t, "[STORAGE_UNAVAILABLE] cannot open store: disk full", err.Error())
}

func TestGuardianError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewStorageUnavailableError("store down", cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("publishing rule: %w", err)
	var gerr *GuardianError
	require.ErrorAs(t, wrapped, &gerr)
	assert.Equal(t, STORAGE_UNAVAILABLE, gerr.Code)
}

func TestGuardianError_IsMatchesByCode(t *testing.T) {
	err := NewConflictError("stale version")
	assert.ErrorIs(t, err, &GuardianError{Code: CONFLICT_STALE_VERSION})
	assert.NotErrorIs(t, err, &GuardianError{Code: VALIDATION_FAILED})
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		validation  bool
		conflict    bool
		unavailable bool
		retryable   bool
	}{
		{
			name:       "validation",
			err:        NewValidationError("bad input", nil),
			validation: true,
		},
		{
			name:      "conflict",
			err:       NewConflictError("stale"),
			conflict:  true,
			retryable: true,
		},
		{
			name:     "not active",
			err:      &GuardianError{Code: CONFLICT_NOT_ACTIVE, Message: "deprecated"},
			conflict: true,
		},
		{
			name:        "storage",
			err:         NewStorageUnavailableError("down", nil),
			unavailable: true,
			retryable:   true,
		},
		{
			name:       "config validation counts as validation",
			err:        &GuardianError{Code: CONFIG_VALIDATION_FAILED, Message: "bad config"},
			validation: true,
		},
		{
			name:      "wrapped conflict",
			err:       fmt.Errorf("outer: %w", NewConflictError("stale")),
			conflict:  true,
			retryable: true,
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.unavailable, IsStorageUnavailable(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestNewDetectorError(t *testing.T) {
	err := NewDetectorError("pii_leak", errors.New("boom"))
	assert.Equal(t, DETECTOR_FAILED, err.Code)
	assert.Contains(t, err.Error(), `detector "pii_leak" failed`)
	assert.False(t, IsRetryable(err))
}
