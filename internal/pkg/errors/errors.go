package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code for each error type
type ErrorCode string

const (
	// General errors
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeConflict   ErrorCode = "CONFLICT"
	ErrCodeCancelled  ErrorCode = "CANCELLED"

	// Merge errors
	ErrCodeInconsistentInput ErrorCode = "INCONSISTENT_INPUT"
	ErrCodeLockNotAcquired   ErrorCode = "LOCK_NOT_ACQUIRED"

	// Infrastructure errors
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeQueueError    ErrorCode = "QUEUE_ERROR"
	ErrCodeEventError    ErrorCode = "EVENT_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message, http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Merge errors

// InconsistentInput reports a duplicate id set that does not fully resolve
func InconsistentInput(requested, resolved int) *AppError {
	return New(ErrCodeInconsistentInput,
		fmt.Sprintf("one or more duplicate records not found: requested %d, found %d", requested, resolved),
		http.StatusUnprocessableEntity).
		WithDetails("requested", requested).
		WithDetails("resolved", resolved)
}

func LockNotAcquired(key string, err error) *AppError {
	return Wrap(err, ErrCodeLockNotAcquired,
		fmt.Sprintf("another merge is in progress for %s", key),
		http.StatusConflict)
}

// Cancelled wraps a context error observed between I/O operations
func Cancelled(err error) *AppError {
	return Wrap(err, ErrCodeCancelled, "operation cancelled", 499)
}

// FromContext converts context errors into Cancelled and leaves anything else untouched
func FromContext(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if IsCode(err, ErrCodeCancelled) {
			return err
		}
		return Cancelled(err)
	}
	return err
}

// Infrastructure errors

func DatabaseError(err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, "database operation failed", http.StatusInternalServerError)
}

func QueueError(err error) *AppError {
	return Wrap(err, ErrCodeQueueError, "queue operation failed", http.StatusInternalServerError)
}

func RecordNotFound(resource string) *AppError {
	return New(ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsCode reports whether err carries an AppError with the given code
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}

// IsDomainError reports errors caused by the request itself rather than infrastructure.
// Retrying them cannot succeed.
func IsDomainError(err error) bool {
	appErr, ok := GetAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case ErrCodeNotFound, ErrCodeInconsistentInput, ErrCodeBadRequest:
		return true
	}
	return false
}
