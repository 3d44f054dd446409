package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := NewTypedError(ValidationError, "invalid input", nil)
	if !IsCategory(err, ValidationError) {
		t.Fatalf("expected validation category match")
	}
	if IsCategory(err, NotFoundError) {
		t.Fatalf("expected not-found category mismatch")
	}

	wrapped := errors.New("wrap: " + err.Error())
	if IsCategory(wrapped, ValidationError) {
		t.Fatalf("plain wrapped string error must not match typed category")
	}

	joined := errors.Join(err, errors.New("other"))
	if !IsCategory(joined, ValidationError) {
		t.Fatalf("expected category match through errors.Join")
	}
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	if got := CategoryOf(NewTypedError(AuthError, "denied", nil)); got != AuthError {
		t.Fatalf("expected AuthError, got %s", got)
	}
	if got := CategoryOf(fmt.Errorf("wrapped: %w", NewTypedError(NotFoundError, "missing", nil))); got != NotFoundError {
		t.Fatalf("expected NotFoundError through wrapping, got %s", got)
	}
	if got := CategoryOf(errors.New("plain")); got != InternalError {
		t.Fatalf("expected InternalError fallback, got %s", got)
	}
}

func TestTypedErrorMessageComposition(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewTypedError(TransportError, "request failed", cause)
	if err.Error() != "request failed: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach cause")
	}

	bare := NewTypedError(ConflictError, "", nil)
	if bare.Error() != string(ConflictError) {
		t.Fatalf("expected category fallback, got %q", bare.Error())
	}
}
