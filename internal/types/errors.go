package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Guardian errors.
type ErrorCode string

// Validation error codes
const (
	VALIDATION_FAILED      ErrorCode = "VALIDATION_FAILED"
	VALIDATION_RULE_FIELD  ErrorCode = "VALIDATION_RULE_FIELD"
	VALIDATION_PACK_MEMBER ErrorCode = "VALIDATION_PACK_MEMBER"
)

// Versioning error codes
const (
	CONFLICT_STALE_VERSION ErrorCode = "CONFLICT_STALE_VERSION"
	CONFLICT_NOT_ACTIVE    ErrorCode = "CONFLICT_NOT_ACTIVE"
)

// Storage error codes
const (
	STORAGE_UNAVAILABLE     ErrorCode = "STORAGE_UNAVAILABLE"
	STORAGE_OPEN_FAILED     ErrorCode = "STORAGE_OPEN_FAILED"
	STORAGE_MIGRATE_FAILED  ErrorCode = "STORAGE_MIGRATE_FAILED"
	STORAGE_QUERY_FAILED    ErrorCode = "STORAGE_QUERY_FAILED"
	STORAGE_AUDIT_LOSS_RISK ErrorCode = "STORAGE_AUDIT_LOSS_RISK"
)

// Detector error codes
const (
	DETECTOR_FAILED    ErrorCode = "DETECTOR_FAILED"
	DETECTOR_NOT_FOUND ErrorCode = "DETECTOR_NOT_FOUND"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// GuardianError is a structured error carrying a code, message, retryability
// hint, and optional cause. It supports errors.Is/errors.As chains.
type GuardianError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if a cause exists.
func (e *GuardianError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping chains.
func (e *GuardianError) Unwrap() error {
	return e.Cause
}

// Is matches another GuardianError by code.
func (e *GuardianError) Is(target error) bool {
	var ge *GuardianError
	if errors.As(target, &ge) {
		return e.Code == ge.Code
	}
	return false
}

// NewValidationError creates a non-retryable validation error.
func NewValidationError(message string, cause error) *GuardianError {
	return &GuardianError{Code: VALIDATION_FAILED, Message: message, Cause: cause}
}

// NewConflictError creates a retryable versioning-conflict error. Callers
// should reload the lineage head and retry the publish.
func NewConflictError(message string) *GuardianError {
	return &GuardianError{Code: CONFLICT_STALE_VERSION, Message: message, Retryable: true}
}

// NewStorageUnavailableError creates a retryable storage error.
func NewStorageUnavailableError(message string, cause error) *GuardianError {
	return &GuardianError{Code: STORAGE_UNAVAILABLE, Message: message, Retryable: true, Cause: cause}
}

// NewDetectorError creates an error for a detector that raised instead of
// returning empty findings. Treated as a bug in the detector, not the caller.
func NewDetectorError(detector string, cause error) *GuardianError {
	return &GuardianError{
		Code:    DETECTOR_FAILED,
		Message: fmt.Sprintf("detector %q failed", detector),
		Cause:   cause,
	}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ge *GuardianError
	if !errors.As(err, &ge) {
		return false
	}
	switch ge.Code {
	case VALIDATION_FAILED, VALIDATION_RULE_FIELD, VALIDATION_PACK_MEMBER, CONFIG_VALIDATION_FAILED:
		return true
	}
	return false
}

// IsConflict reports whether err is a versioning-conflict error.
func IsConflict(err error) bool {
	var ge *GuardianError
	if !errors.As(err, &ge) {
		return false
	}
	return ge.Code == CONFLICT_STALE_VERSION || ge.Code == CONFLICT_NOT_ACTIVE
}

// IsStorageUnavailable reports whether err indicates an unreachable store.
func IsStorageUnavailable(err error) bool {
	var ge *GuardianError
	if !errors.As(err, &ge) {
		return false
	}
	switch ge.Code {
	case STORAGE_UNAVAILABLE, STORAGE_OPEN_FAILED, STORAGE_QUERY_FAILED:
		return true
	}
	return false
}

// IsRetryable reports whether the error carries a retryable hint.
func IsRetryable(err error) bool {
	var ge *GuardianError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}
