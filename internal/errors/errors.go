package errors

import (
	"errors"
	"fmt"
)

// LogError is the structured error type returned by the logging setup paths.
// It carries enough context for the CLI to print a hint and for callers to
// branch on the error kind.
type LogError struct {
	// Code is the unique error code (e.g., "ERR_202_FILE_OPEN").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *LogError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *LogError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with LogError.
func (e *LogError) Is(target error) bool {
	if t, ok := target.(*LogError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *LogError) WithDetail(key, value string) *LogError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *LogError) WithSuggestion(suggestion string) *LogError {
	e.Suggestion = suggestion
	return e
}

// New creates a new LogError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *LogError {
	return &LogError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a LogError from an existing error.
// The error's message becomes the LogError message.
func Wrap(code string, err error) *LogError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *LogError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *LogError {
	return New(ErrCodeFileOpen, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *LogError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *LogError {
	return New(ErrCodeInternal, message, cause)
}

// IsCategory reports whether err, or any error it wraps, is a LogError of
// the given category.
func IsCategory(err error, category Category) bool {
	var le *LogError
	if errors.As(err, &le) {
		return le.Category == category
	}
	return false
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	return IsCategory(err, CategoryConfig)
}

// IsIO reports whether err is an I/O error.
func IsIO(err error) bool {
	return IsCategory(err, CategoryIO)
}

// GetCode extracts the error code from a LogError.
// Returns empty string if not a LogError.
func GetCode(err error) string {
	var le *LogError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// GetCategory extracts the category from a LogError.
// Returns empty string if not a LogError.
func GetCategory(err error) Category {
	var le *LogError
	if errors.As(err, &le) {
		return le.Category
	}
	return ""
}
