package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/arthur-debert/nanoprefs/formats"
	"github.com/arthur-debert/nanoprefs/prefs"
	"github.com/arthur-debert/nanoprefs/storage"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "load settings", "set")
	Cause       string   // The underlying cause (e.g., "preference not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}

	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}

	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewNotFoundError creates an error for a preference path that doesn't exist
func NewNotFoundError(operation, path string, underlying error) *CLIError {
	return &CLIError{
		Operation:  operation,
		Cause:      fmt.Sprintf("preference %q not found", path),
		Underlying: underlying,
		Suggestions: []string{
			CommonSuggestions.RunShow,
			"Array elements are addressed by index, e.g. servers.0.host",
		},
	}
}

// WrapError wraps an existing error with CLI-friendly context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}

	var parseErr *formats.ParseError
	cause := "operation failed"
	switch {
	case errors.Is(err, storage.ErrLocked):
		cause = "settings file is locked by another process"
	case errors.Is(err, os.ErrNotExist):
		cause = "file not found"
		suggestions = append(suggestions, CommonSuggestions.CheckPaths)
	case errors.Is(err, os.ErrPermission):
		cause = "insufficient permissions"
		suggestions = append(suggestions, CommonSuggestions.CheckPerms)
	case errors.Is(err, prefs.ErrValueNotAllowed):
		cause = "value not allowed"
	case errors.Is(err, prefs.ErrValueInvalid):
		cause = "invalid value"
	case errors.As(err, &parseErr):
		cause = "settings file could not be parsed"
	case errors.Is(err, prefs.ErrNotFound):
		cause = "not found"
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     err.Error(),
		Suggestions: suggestions,
		Underlying:  err,
	}
}

// Common error messages and suggestions
var (
	CommonSuggestions = struct {
		CheckSchema string
		CheckFile   string
		CheckPaths  string
		CheckPerms  string
		CheckConfig string
		RunShow     string
		RunKinds    string
		RunHelp     string
	}{
		CheckSchema: "Use --schema (or PREFS_SCHEMA) to point at a schema file",
		CheckFile:   "Use --file (or PREFS_FILE) to point at a settings file",
		CheckPaths:  "Check that --schema and --file point to existing files",
		CheckPerms:  "Check file permissions and directory access",
		CheckConfig: "Check your configuration file or environment variables",
		RunShow:     "Run 'prefs show' to list preference paths",
		RunKinds:    "Run 'prefs kinds' to see supported value kinds",
		RunHelp:     "Run command with --help for usage information",
	}
)
