package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"merged_count": 2}, nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_SuccessTextUsesRender(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("ignored", func(w io.Writer) { fmt.Fprint(w, "rendered") }))
	assert.Equal(t, "rendered", buf.String())
}

func TestOutputFormatter_FailJSONCarriesDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	appErr := apperrors.InconsistentInput(3, 2).WithDetails("missing_ids", []string{"abc"})
	err := f.Fail("merge failed", fmt.Errorf("merge customers: %w", appErr))

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.True(t, exitErr.Reported)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INCONSISTENT_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "missing_ids")
}

func TestOutputFormatter_FailTextPlainError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	err := f.Fail("scan failed", errors.New("connection refused"))

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [INTERNAL_ERROR]: scan failed: connection refused\n", buf.String())
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitCommandError, exitCodeFor(apperrors.NotFound("x")))
	assert.Equal(t, ExitCommandError, exitCodeFor(apperrors.BadRequest("x")))
	assert.Equal(t, ExitRetryable, exitCodeFor(apperrors.LockNotAcquired("k", nil)))
	assert.Equal(t, ExitRetryable, exitCodeFor(apperrors.QueueError(errors.New("redis down"))))
	assert.Equal(t, ExitFailure, exitCodeFor(apperrors.DatabaseError(errors.New("x"))))
	assert.Equal(t, ExitFailure, exitCodeFor(errors.New("x")))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitRetryable, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitRetryable, "busy"))))
}
