// Package apperr declares the error kinds shared by the board services.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrPermissionDenied covers both role denials and refused camera access.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPreconditionFailed signals a submission without captured evidence.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrDeviceUnavailable signals no capture device could be acquired.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrPersistence wraps any write rejected by storage.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound indicates the referenced entity does not exist or was deleted.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a write would break a uniqueness or lifecycle rule.
	ErrConflict = errors.New("conflict")
)

// Violations maps a field name to the reason it was rejected.
type Violations map[string]string

// Add records a violation for field, keeping the first reason.
func (v Violations) Add(field, reason string) {
	if _, exists := v[field]; !exists {
		v[field] = reason
	}
}

// Empty reports whether no violation was recorded.
func (v Violations) Empty() bool { return len(v) == 0 }

// Err converts the violations into a *ValidationError, or nil when empty.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v}
}

// ValidationError reports field-by-field input problems.
type ValidationError struct {
	Fields Violations
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// Persistence wraps a storage error so callers can match ErrPersistence while
// keeping the cause.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
