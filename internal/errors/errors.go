// Package errors provides centralized error definitions and error handling utilities
// for multistair. It defines the configuration and validation error types raised by
// the staircase core, an origin/context wrapper that every public operation uses to
// report failures, and classification helpers.
//
// # Error Types
//
//   - ConfigurationError: bad condition list, unsupported procedure kind, missing
//     required condition fields. Raised at construction and never recovered.
//   - ValidationError: malformed input passed to an operation (for example a
//     response that is not 0 or 1).
//   - StaircaseError: the {origin, context, error} triple wrapping any of the above,
//     identifying which method raised it and under what operation.
//
// # Usage
//
//	err := errors.NewConfigurationError("conditions must not be empty")
//	return errors.WrapOrigin("Coordinator.New", "when constructing the coordinator", err)
//
// Checking errors:
//
//	var cfgErr *errors.ConfigurationError
//	if errors.As(err, &cfgErr) { ... }
//	if errors.Is(err, errors.ErrInvalidResponse) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that leave the coordinator unusable.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Configuration sentinel errors
var (
	// ErrNoConditions indicates that the condition list is empty.
	ErrNoConditions = New("no conditions")
	// ErrMissingField indicates that a condition lacks a required field.
	ErrMissingField = New("missing required condition field")
	// ErrDuplicateLabel indicates that two conditions share a label.
	ErrDuplicateLabel = New("duplicate condition label")
	// ErrUnsupportedKind indicates a procedure kind that cannot be instantiated.
	ErrUnsupportedKind = New("unsupported procedure kind")
	// ErrUnknownPolicy indicates an unknown trial-selection policy.
	ErrUnknownPolicy = New("unknown selection policy")
)

// Runtime sentinel errors
var (
	// ErrInvalidResponse indicates a response that is not 0, 1 or a list of them.
	ErrInvalidResponse = New("invalid response")
	// ErrLedgerSlot indicates an out-of-order or repeated ledger write.
	ErrLedgerSlot = New("invalid ledger slot")
	// ErrNotQueryable indicates a procedure kind whose value cannot be queried.
	ErrNotQueryable = New("procedure value is not queryable")
	// ErrQuestDomain indicates QUEST parameters outside the psychometric domain.
	ErrQuestDomain = New("quest parameters out of domain")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// StairError is the base interface for all multistair errors.
type StairError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// ConfigurationError
// -----------------------------------------------------------------------------

// ConfigurationError represents a coordinator or procedure that cannot be built
// from the supplied configuration.
//
// Example:
//
//	err := errors.NewConfigurationError("condition has no label").
//		WithCondition(2).WithCause(errors.ErrMissingField)
type ConfigurationError struct {
	baseError
	// Condition is the index of the offending condition, or -1.
	Condition int
	Field     string
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityCritical,
			userFacing: true,
		},
		Condition: -1,
	}
}

// WithCondition records the index of the offending condition.
func (e *ConfigurationError) WithCondition(idx int) *ConfigurationError {
	e.Condition = idx
	return e
}

// WithField records the offending condition field.
func (e *ConfigurationError) WithField(field string) *ConfigurationError {
	e.Field = field
	return e
}

// WithCause adds a cause to the error.
func (e *ConfigurationError) WithCause(cause error) *ConfigurationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ConfigurationError) Error() string {
	var parts []string
	if e.Condition >= 0 {
		parts = append(parts, fmt.Sprintf("condition=%d", e.Condition))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}

	prefix := "configuration error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("configuration error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// ValidationError
// -----------------------------------------------------------------------------

// ValidationError represents invalid input passed to an operation.
//
// Example:
//
//	err := errors.NewValidationError("response must be 0 or 1")
//	err = err.WithField("response").WithValue(2)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// -----------------------------------------------------------------------------
// StaircaseError
// -----------------------------------------------------------------------------

// StaircaseError wraps a failure with the method that raised it (Origin) and the
// operation that was under way (Context). It is never recovered internally.
//
// Example:
//
//	err := errors.WrapOrigin("Coordinator.AddResponse", "when adding a response", cause)
//	fmt.Println(err) // "Coordinator.AddResponse: when adding a response: <cause>"
type StaircaseError struct {
	Origin  string
	Context string
	Err     error
}

// WrapOrigin wraps err with an origin and context. It returns nil when err is nil.
func WrapOrigin(origin, context string, err error) error {
	if err == nil {
		return nil
	}
	return &StaircaseError{Origin: origin, Context: context, Err: err}
}

// Error returns the formatted error message.
func (e *StaircaseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Origin, e.Context, e.Err)
}

// Unwrap returns the wrapped error.
func (e *StaircaseError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var stairErr StairError
	if As(err, &stairErr) {
		return stairErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement StairError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var stairErr StairError
	if As(err, &stairErr) {
		return stairErr.Severity()
	}
	return SeverityError
}

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return As(err, &cfgErr)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return As(err, &valErr)
}

// Origin returns the origin of the outermost StaircaseError in err's chain,
// or the empty string.
func Origin(err error) string {
	var se *StaircaseError
	if As(err, &se) {
		return se.Origin
	}
	return ""
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
