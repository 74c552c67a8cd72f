package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // infrastructure or unexpected failure
	ExitCommandError = 2 // bad input, unknown or inconsistent records
	ExitRetryable    = 3 // another merge held the lock or the command was cancelled
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code     int
	Message  string
	Err      error
	Reported bool // already written by the output formatter
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exitCodeFor maps application error codes to process exit codes
func exitCodeFor(err error) int {
	appErr, ok := apperrors.GetAppError(err)
	if !ok {
		return ExitFailure
	}
	switch appErr.Code {
	case apperrors.ErrCodeBadRequest, apperrors.ErrCodeNotFound, apperrors.ErrCodeInconsistentInput:
		return ExitCommandError
	case apperrors.ErrCodeLockNotAcquired, apperrors.ErrCodeCancelled, apperrors.ErrCodeQueueError:
		return ExitRetryable
	default:
		return ExitFailure
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Success outputs data as JSON, or through render in text mode.
// A nil render prints data with its default format.
func (f *OutputFormatter) Success(data interface{}, render func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if render == nil {
		fmt.Fprintln(f.Writer, data)
		return nil
	}
	render(f.Writer)
	return nil
}

// Fail writes err in the configured format and returns it as an ExitError
func (f *OutputFormatter) Fail(message string, err error) error {
	cliErr := &CLIError{Code: string(apperrors.ErrCodeInternal), Message: err.Error()}
	if appErr, ok := apperrors.GetAppError(err); ok {
		cliErr.Code = string(appErr.Code)
		cliErr.Message = appErr.Message
		cliErr.Details = appErr.Details
	}

	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: cliErr})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s: %s\n", cliErr.Code, message, cliErr.Message)
		for _, key := range slices.Sorted(maps.Keys(cliErr.Details)) {
			fmt.Fprintf(f.Writer, "  %s: %v\n", key, cliErr.Details[key])
		}
	}

	exitErr := WrapExitError(exitCodeFor(err), message, err)
	exitErr.Reported = true
	return exitErr
}
