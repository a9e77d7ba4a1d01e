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
	ExitFailure      = 1 // Invalid config, engine failure
	ExitCommandError = 2 // Command error (missing directory, database cannot be opened, etc.)
)

// Error codes reported by the validate command.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeNoConfig        = "E003" // No config file found
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeInvalidConfig   = "E101" // Config failed validation
	ErrCodeMultipleConfigs = "E102" // More than one config file
)

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
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result. text is printed in text mode and data
// is encoded in JSON mode.
func (f *OutputFormatter) Success(text string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error outputs an error. In text mode each detail line follows the message.
func (f *OutputFormatter) Error(code, message string, details []string) error {
	if f.Format == "json" {
		resp := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message},
		}
		if len(details) > 0 {
			resp.Error.Details = details
		}
		return json.NewEncoder(f.Writer).Encode(resp)
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	for _, d := range details {
		fmt.Fprintf(f.Writer, "  - %s\n", d)
	}
	return nil
}
