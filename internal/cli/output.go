package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Fixture failure (a case did not match its expectation)
	ExitCommandError = 2 // Command error (bad query, missing schema, database unreachable)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric  = "E001" // Generic/unknown error
	ErrCodeConfig   = "E002" // Invalid flag or config value
	ErrCodeSchema   = "E003" // Schema failed to load
	ErrCodeDatabase = "E004" // Database open or execution error
	ErrCodeNotFound = "E005" // Path not found
	ErrCodeFixture  = "E006" // Fixture case did not match

	ErrCodeLexical     = "E201"
	ErrCodeResolution  = "E202"
	ErrCodeUnsupported = "E203"
	ErrCodeCasting     = "E204"
	ErrCodeInvalid     = "E205"
)

var categoryCodes = map[string]string{
	query.CategoryLexical:     ErrCodeLexical,
	query.CategoryResolution:  ErrCodeResolution,
	query.CategoryUnsupported: ErrCodeUnsupported,
	query.CategoryCasting:     ErrCodeCasting,
	query.CategoryInvalid:     ErrCodeInvalid,
}

// ErrorCode maps a compile error to its stable code, E001 when the
// error has no category.
func ErrorCode(err error) string {
	if code, ok := categoryCodes[query.Category(err)]; ok {
		return code
	}
	return ErrCodeGeneric
}

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E201", "E003", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result. In JSON mode data is rendered as
// canonical JSON, so it must be built from maps, slices and scalars.
// In text mode text is printed instead.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.JSON() {
		return f.writeJSON(map[string]any{"status": "ok", "data": data})
	}
	_, err := fmt.Fprint(f.Writer, text)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		e := map[string]any{"code": code, "message": message}
		if details != nil {
			e["details"] = details
		}
		return f.writeJSON(map[string]any{"status": "error", "error": e})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) writeJSON(v map[string]any) error {
	b, err := results.MarshalCanonical(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f.Writer, "%s\n", b)
	return err
}

// Fail reports err in the configured format and returns it as an
// ExitError with code.
func (f *OutputFormatter) Fail(exit int, code string, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
