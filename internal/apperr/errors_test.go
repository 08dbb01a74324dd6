package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestViolationsErr(t *testing.T) {
	v := Violations{}
	if err := v.Err(); err != nil {
		t.Fatalf("expected nil error for empty violations, got %v", err)
	}

	v.Add("client_id", "required")
	v.Add("client_id", "unknown")
	v.Add("gross_weight", "must_be_positive")

	err := v.Err()
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := "validation failed: client_id: required, gross_weight: must_be_positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestPersistenceWrapsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Persistence("insert order", cause)

	if !errors.Is(err, ErrPersistence) {
		t.Error("expected ErrPersistence in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if Persistence("noop", nil) != nil {
		t.Error("expected nil for nil cause")
	}
	if IsValidation(fmt.Errorf("wrapped: %w", err)) {
		t.Error("persistence error must not look like validation")
	}
}
