package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Base error types
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrTimeout          = errors.New("timeout")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConnectionFailed = errors.New("connection failed")
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeAPI        ErrorType = "api"
	ErrorTypeTimeout    ErrorType = "timeout"
)

// ResolveError is a structured error for access-resolution operations.
type ResolveError struct {
	Type        ErrorType
	Op          string // Operation that failed (e.g., "get_profile", "get_subscription")
	WorkspaceID string // Workspace the operation targeted, if any
	Err         error  // Underlying error
	StatusCode  int    // HTTP status code if applicable
	Timestamp   time.Time
	Retryable   bool
}

func (e *ResolveError) Error() string {
	if e.WorkspaceID != "" {
		return fmt.Sprintf("%s failed for workspace %s: %v", e.Op, e.WorkspaceID, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *ResolveError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrNotFound:
		return e.Type == ErrorTypeNotFound
	case ErrUnauthorized, ErrForbidden:
		return e.Type == ErrorTypeAuth
	case ErrTimeout:
		return e.Type == ErrorTypeTimeout
	case ErrConnectionFailed:
		return e.Type == ErrorTypeConnection
	}

	return errors.Is(e.Err, target)
}

// NewResolveError creates a new ResolveError
func NewResolveError(errorType ErrorType, op string, err error) *ResolveError {
	return &ResolveError{
		Type:      errorType,
		Op:        op,
		Err:       err,
		Timestamp: time.Now(),
		Retryable: isRetryable(errorType, err),
	}
}

// WithWorkspace adds workspace information to the error
func (e *ResolveError) WithWorkspace(workspaceID string) *ResolveError {
	e.WorkspaceID = workspaceID
	return e
}

// WithStatusCode adds HTTP status code to the error and reclassifies retryability.
func (e *ResolveError) WithStatusCode(code int) *ResolveError {
	e.StatusCode = code
	if code >= 500 || code == 429 || code == 408 {
		e.Retryable = true
	} else if code >= 400 && code < 500 {
		e.Retryable = false
	}
	if code == 401 || code == 403 {
		e.Type = ErrorTypeAuth
	}
	return e
}

// isRetryable determines if an error should be retried
func isRetryable(errorType ErrorType, err error) bool {
	switch errorType {
	case ErrorTypeConnection, ErrorTypeTimeout:
		return true
	case ErrorTypeAuth, ErrorTypeValidation, ErrorTypeNotFound:
		return false
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			return netErr.Timeout()
		}
		if err != nil {
			msg := strings.ToLower(err.Error())
			return strings.Contains(msg, "timeout") ||
				strings.Contains(msg, "connection refused") ||
				strings.Contains(msg, "temporarily unavailable")
		}
		return false
	}
}

// IsAuthError reports whether err indicates the backend rejected our credentials.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Type == ErrorTypeAuth
	}
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
