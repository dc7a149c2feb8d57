// Package errors provides standardized error types and helpers for the
// corpus encoding pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a file or resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrFormatIncompatible indicates a container cannot be merged because
	// its format version or column count differs from the target
	ErrFormatIncompatible = errors.New("format incompatible")
	// ErrInvalidUse indicates an operation was called in a state that does
	// not permit it (e.g. matching against an unlocked vocabulary)
	ErrInvalidUse = errors.New("invalid use")
)

// FormatError reports a header field mismatch between two corpus containers.
type FormatError struct {
	Path  string // Container that failed validation
	Field string // Header field that mismatched ("version", "columns")
	Got   uint64 // Value found in the container
	Want  uint64 // Value required by the merge target
	Err   error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("container %s has incompatible %s %d (want %d)", e.Path, e.Field, e.Got, e.Want)
}

func (e *FormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFormatIncompatible
}

// UsageError represents a precondition violation on an API call.
type UsageError struct {
	Operation string // Operation that was attempted
	Reason    string // Which precondition was violated
	Err       error  // Underlying error, if any
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid use of %s: %s", e.Operation, e.Reason)
}

func (e *UsageError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidUse
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "codebook", "vocabulary", "XML")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewFormat creates a FormatError
func NewFormat(path, field string, got, want uint64) *FormatError {
	return &FormatError{
		Path:  path,
		Field: field,
		Got:   got,
		Want:  want,
	}
}

// NewUsage creates a UsageError
func NewUsage(operation, reason string) *UsageError {
	return &UsageError{
		Operation: operation,
		Reason:    reason,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
