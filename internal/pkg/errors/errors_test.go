package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NotFound("customer 42 not found")
	assert.Equal(t, "NOT_FOUND: customer 42 not found", err.Error())

	wrapped := DatabaseError(errors.New("connection reset"))
	assert.Equal(t, "DATABASE_ERROR: database operation failed - connection reset", wrapped.Error())
}

func TestInconsistentInput_Details(t *testing.T) {
	err := InconsistentInput(3, 2)

	assert.Equal(t, ErrCodeInconsistentInput, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, 3, err.Details["requested"])
	assert.Equal(t, 2, err.Details["resolved"])
	assert.Contains(t, err.Message, "requested 3, found 2")
}

func TestIsCode_ThroughWrapping(t *testing.T) {
	base := NotFound("lead not found")
	wrapped := fmt.Errorf("merge leads: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeNotFound))
	assert.False(t, IsCode(wrapped, ErrCodeInconsistentInput))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeNotFound))
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, FromContext(plain))

	converted := FromContext(fmt.Errorf("query: %w", context.Canceled))
	require.True(t, IsCode(converted, ErrCodeCancelled))
	assert.ErrorIs(t, converted, context.Canceled)

	deadline := FromContext(context.DeadlineExceeded)
	assert.True(t, IsCode(deadline, ErrCodeCancelled))

	// already converted errors are not wrapped twice
	again := FromContext(converted)
	assert.Same(t, converted, again)
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(NotFound("x")))
	assert.True(t, IsDomainError(InconsistentInput(2, 1)))
	assert.True(t, IsDomainError(BadRequest("x")))
	assert.False(t, IsDomainError(DatabaseError(errors.New("x"))))
	assert.False(t, IsDomainError(Cancelled(context.Canceled)))
	assert.False(t, IsDomainError(errors.New("x")))
}

func TestWithDetails_InitializesMap(t *testing.T) {
	err := New(ErrCodeConflict, "busy", http.StatusConflict)
	assert.Nil(t, err.Details)

	err.WithDetails("key", "tenant:customer")
	assert.Equal(t, "tenant:customer", err.Details["key"])
}
