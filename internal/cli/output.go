package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/litikesh/Patient-Record-Management-System/internal/records"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation ran and was refused: duplicate, unknown patient, bad query
	ExitCommandError = 2 // the operation could not run: bad flags, bad config, database unavailable
)

// ErrCodeGeneric is reported for errors outside the records taxonomy.
const ErrCodeGeneric = "ERROR"

// ExitError carries the exit code a command wants the process to end with.
// Err, when set, is the cause and is reachable through errors.Is and
// errors.As.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// reported is set once an OutputFormatter has shown the error, so
	// Execute does not print it a second time.
	reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode maps a command's error to the process exit code. Errors that
// are not ExitErrors come from cobra's own flag and argument checks.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the envelope every command writes in JSON mode.
type Response struct {
	Status string         `json:"status"` // ok or error
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes a failed command. Code is a records error code
// or ErrCodeGeneric.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results to Writer, as one JSON envelope
// per call or as text. Diagnostics go to ErrWriter, or to Writer when it is
// nil.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Render writes data as an ok envelope in JSON mode. In text mode it hands
// Writer to text instead.
func (f *OutputFormatter) Render(data any, text func(w io.Writer)) error {
	if f.Format != "json" {
		text(f.Writer)
		return nil
	}
	return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
}

// Report writes an error. details is shown in JSON mode, and in text mode
// only when Verbose is set.
func (f *OutputFormatter) Report(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// A records error is shown as its code and user message; anything else as
// ErrCodeGeneric and its text. With Verbose the full error is attached as
// details.
func (f *OutputFormatter) Fail(err error) error {
	code, message := ErrCodeGeneric, err.Error()

	var re *records.Error
	if errors.As(err, &re) {
		code, message = string(re.Code), records.UserMessage(err)
	}

	var details any
	if f.Verbose {
		details = err.Error()
	}
	if outErr := f.Report(code, message, details); outErr != nil {
		return outErr
	}

	exit := ExitFailure
	if records.IsInitializationError(err) {
		exit = ExitCommandError
	}
	exitErr := WrapExitError(exit, message, err)
	exitErr.reported = true
	return exitErr
}

// VerboseLog writes a diagnostic line when Verbose is set. It never writes
// to Writer while ErrWriter is set, so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.diag(), format+"\n", args...)
	}
}

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
