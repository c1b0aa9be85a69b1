package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolveErrorMessage(t *testing.T) {
	base := errors.New("boom")

	err := NewResolveError(ErrorTypeAPI, "get_subscription", base).WithWorkspace("ws-1")
	if got, want := err.Error(), "get_subscription failed for workspace ws-1: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = NewResolveError(ErrorTypeAPI, "get_profile", base)
	if got, want := err.Error(), "get_profile failed: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestResolveErrorIs(t *testing.T) {
	cases := []struct {
		errType ErrorType
		target  error
		match   bool
	}{
		{ErrorTypeAuth, ErrUnauthorized, true},
		{ErrorTypeAuth, ErrForbidden, true},
		{ErrorTypeNotFound, ErrNotFound, true},
		{ErrorTypeTimeout, ErrTimeout, true},
		{ErrorTypeConnection, ErrConnectionFailed, true},
		{ErrorTypeAPI, ErrUnauthorized, false},
		{ErrorTypeConnection, ErrTimeout, false},
	}
	for _, tc := range cases {
		err := NewResolveError(tc.errType, "op", errors.New("x"))
		if got := errors.Is(err, tc.target); got != tc.match {
			t.Errorf("errors.Is(%v, %v) = %v, want %v", tc.errType, tc.target, got, tc.match)
		}
	}
}

func TestResolveErrorUnwrap(t *testing.T) {
	base := errors.New("inner")
	err := NewResolveError(ErrorTypeAPI, "op", fmt.Errorf("wrapped: %w", base))
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match via Unwrap chain")
	}
}

func TestWithStatusCodeReclassifies(t *testing.T) {
	err := NewResolveError(ErrorTypeAPI, "op", errors.New("x")).WithStatusCode(503)
	if !err.Retryable {
		t.Error("expected 503 to be retryable")
	}

	err = NewResolveError(ErrorTypeConnection, "op", errors.New("x")).WithStatusCode(400)
	if err.Retryable {
		t.Error("expected 400 to be non-retryable")
	}

	err = NewResolveError(ErrorTypeAPI, "op", errors.New("x")).WithStatusCode(401)
	if err.Type != ErrorTypeAuth {
		t.Errorf("expected 401 to reclassify as auth, got %v", err.Type)
	}
	if !IsAuthError(err) {
		t.Error("expected IsAuthError to report true for 401")
	}
}

func TestRetryableClassification(t *testing.T) {
	if !NewResolveError(ErrorTypeConnection, "op", errors.New("x")).Retryable {
		t.Error("connection errors should be retryable")
	}
	if !NewResolveError(ErrorTypeTimeout, "op", errors.New("x")).Retryable {
		t.Error("timeout errors should be retryable")
	}
	if NewResolveError(ErrorTypeAuth, "op", errors.New("x")).Retryable {
		t.Error("auth errors should not be retryable")
	}
	if !NewResolveError(ErrorTypeAPI, "op", errors.New("connection refused")).Retryable {
		t.Error("connection refused should be retryable by message inspection")
	}
}
