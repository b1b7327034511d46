package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/tmdbg/internal/loader"
	"github.com/roach88/tmdbg/internal/rules"
)

// Exit codes for CLI commands.
const (
	ExitSuccess          = 0 // Successful execution
	ExitFailure          = 1 // Usage error, failed scenarios, store errors
	ExitOutOfMemory      = 2 // Input exceeded buffer limits
	ExitParse            = 3 // Description is malformed
	ExitFileRead         = 4 // Description could not be read
	ExitNonDeterministic = 5 // Two rules share (state, read)
)

// ExitUsage is the exit code for a wrong argument count.
const ExitUsage = ExitFailure

// Fixed diagnostics, printed after the "[ERR] " prefix.
const (
	MsgUsage            = "usage: tmdbg <file>"
	MsgOutOfMemory      = "out of memory"
	MsgParse            = "parsing of input failed"
	MsgFileRead         = "reading the file failed"
	MsgNonDeterministic = "non-deterministic turing machine"
)

// DiagnosticPrefix starts every diagnostic line.
const DiagnosticPrefix = "[ERR] "

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Diagnostic printed after DiagnosticPrefix
	Err     error  // Underlying error (optional)

	// Reported is set when the command already wrote the error in the
	// requested output format.
	Reported bool
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

// MachineError maps a failure to load a machine onto its exit code and
// fixed diagnostic. Errors that are neither load nor determinism failures
// become ExitFailure with the error text.
func MachineError(err error) *ExitError {
	if kind, ok := loader.KindOf(err); ok {
		switch kind {
		case loader.FileRead:
			return WrapExitError(ExitFileRead, MsgFileRead, err)
		case loader.OutOfMemory:
			return WrapExitError(ExitOutOfMemory, MsgOutOfMemory, err)
		default:
			return WrapExitError(ExitParse, MsgParse, err)
		}
	}
	if rules.IsNonDeterminism(err) {
		return WrapExitError(ExitNonDeterministic, MsgNonDeterministic, err)
	}
	return WrapExitError(ExitFailure, "loading machine failed", err)
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
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    int    `json:"code"`              // process exit code
	Message string `json:"message"`           // fixed diagnostic
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an exit error in the configured format and marks it
// reported. In text format nothing is written: the top-level handler
// prints the diagnostic line.
func (f *OutputFormatter) Error(exitErr *ExitError) error {
	if f.Format != "json" {
		if f.Verbose && exitErr.Err != nil {
			fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", exitErr.Err)
		}
		return nil
	}

	resp := CLIResponse{
		Status: "error",
		Error: &CLIError{
			Code:    exitErr.Code,
			Message: exitErr.Message,
		},
	}
	if exitErr.Err != nil {
		resp.Error.Details = exitErr.Err.Error()
	}
	exitErr.Reported = true
	return json.NewEncoder(f.Writer).Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
