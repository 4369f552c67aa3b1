package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Program fault, failed scenarios, non-deterministic replay
	ExitCommandError = 2 // Bad flags, unreadable files, syntax errors, store errors
)

// Error codes reported in CLIError.Code and in text output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeSyntax       = "E002" // Unbalanced brackets in source
	ErrCodeInvalidIR    = "E003" // Malformed IR document
	ErrCodeNotFound     = "E004" // Path not found or unreadable
	ErrCodeConfig       = "E005" // Invalid config file or flag value
	ErrCodeStore        = "E006" // Database error
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeRuntime      = "E008" // Program failed while running
	ErrCodeReplayDiffer = "E009" // Replayed run differs from the record
	ErrCodeScenarioFail = "E010" // One or more scenarios failed
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string
	Err     error // optional cause
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

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err. Errors that are not
// an ExitError (cobra flag errors, for example) map to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// CLIResponse is the JSON envelope written by every command in json mode.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failure in a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; keeps JSON on Writer clean
	Verbose   bool
}

// JSON reports whether the formatter writes JSON envelopes.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data. In json mode it is wrapped in an "ok" envelope; in
// text mode text renders it, or data is printed as-is when text is nil.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	if text == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return text(f.Writer)
}

// Failure writes data under an "error" envelope in json mode, for
// commands that ran to completion but found problems (failed scenarios,
// replay mismatches). Text mode behaves like Success.
func (f *OutputFormatter) Failure(code, message string, data any, text func(w io.Writer) error) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	if text == nil {
		return nil
	}
	return text(f.Writer)
}

// Error writes a single error.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.errWriter(), "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.errWriter(), "Details: %v\n", details)
	}
	return nil
}

// Fail writes the error and returns the matching ExitError.
func (f *OutputFormatter) Fail(exit int, code, message string, err error) error {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, msg, nil)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), err)
}

// VerboseLog writes to ErrWriter when verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
