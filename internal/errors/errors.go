// Package errors provides the error taxonomy shared by the capsela-util
// packages: sentinel errors, typed errors carrying context, and helpers that
// classify an error without caring which package produced it.
//
// # Error Types
//
// Domain errors follow the three failure families of the library:
//   - ConfigError: malformed INI input, missing modes or sections. These fail
//     fast at load time and can only be fixed by the caller.
//   - MisuseError: a component was driven against its protocol (writing to an
//     ended pipe, constructing an abstract class, adding reports to a closed
//     monitor).
//   - StreamError: an upstream reader or stream reported an error. These are
//     propagated through rejected futures and error events, never swallowed.
//
// Semantic errors represent common conditions:
//   - NotFoundError: a named resource does not exist
//   - ValidationError: invalid input
//
// # Usage
//
//	err := errors.NewConfigError("section missing", errors.ErrSectionNotFound).
//		WithFile("config.ini").WithSection("production")
//
//	if errors.Is(err, errors.ErrSectionNotFound) { ... }
//
//	var cfgErr *errors.ConfigError
//	if errors.As(err, &cfgErr) { ... }
//
// Nothing in the library retries; callers decide what to do with an error.
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
	// SeverityCritical is for errors that require immediate attention.
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
	// ErrModeRequired indicates that no configuration mode was given.
	ErrModeRequired = New("mode must be one of development, testing, production")
	// ErrSectionNotFound indicates that a requested INI section does not exist.
	ErrSectionNotFound = New("section does not exist")
	// ErrMalformedLine indicates an INI line that is neither comment, section nor assignment.
	ErrMalformedLine = New("malformed line")
	// ErrUndefinedParent indicates a section inheriting from a section not defined above it.
	ErrUndefinedParent = New("parent section is not defined")
	// ErrKeyConflict indicates a dotted key that walks through a scalar value.
	ErrKeyConflict = New("key conflicts with an existing value")
)

// Protocol misuse sentinel errors
var (
	// ErrWriteAfterEnd indicates a write to a pipe after End.
	ErrWriteAfterEnd = New("can't write to pipe after end()")
	// ErrAbstractClass indicates an attempt to construct an abstract class.
	ErrAbstractClass = New("an abstract class cannot be instantiated")
	// ErrAbstractMethod indicates a call to a member declared abstract.
	ErrAbstractMethod = New("abstract method called")
	// ErrMixinConflict indicates a member name contributed by two mixins.
	ErrMixinConflict = New("member present in two different mixins")
	// ErrAccessorLocked indicates an attempt to redefine or misuse a locked accessor.
	ErrAccessorLocked = New("accessor property is locked")
	// ErrNoSuchMember indicates a lookup of an undefined member.
	ErrNoSuchMember = New("no such member")
	// ErrNotCallable indicates a call to a member that is not a method.
	ErrNotCallable = New("member is not callable")
	// ErrReportsClosed indicates AddReport after DoneAddingReports.
	ErrReportsClosed = New("cannot add another report after calling doneAddingReports()")
	// ErrClosedEnded indicates DoneAddingReports on a monitor with a fixed count.
	ErrClosedEnded = New("doneAddingReports() called on a closed-ended Monitor")
	// ErrMissedEvents indicates a listener attached to a stream after it started emitting.
	ErrMissedEvents = New("you missed the boat")
)

// Stream and data sentinel errors
var (
	// ErrNoData indicates a stream that ended without producing any data.
	ErrNoData = New("no data received")
	// ErrUnknownEncoding indicates an unsupported text encoding name.
	ErrUnknownEncoding = New("unknown encoding")
	// ErrUnknownAlgorithm indicates an unsupported hash algorithm name.
	ErrUnknownAlgorithm = New("unknown hash algorithm")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CapselaError is the base interface for the typed errors of this module.
type CapselaError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

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

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "prefix [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------

// ConfigError represents a configuration failure: bad INI text, a missing mode
// or a missing section.
//
// Example:
//
//	err := errors.NewConfigError("malformed line: foo", errors.ErrMalformedLine).WithLine(3)
//	fmt.Println(err) // "config error [line=3]: malformed line: foo: malformed line"
type ConfigError struct {
	baseError
	File    string
	Section string
	Line    int
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithFile adds the file path to the error context.
func (e *ConfigError) WithFile(path string) *ConfigError {
	e.File = path
	return e
}

// WithSection adds the section name to the error context.
func (e *ConfigError) WithSection(section string) *ConfigError {
	e.Section = section
	return e
}

// WithLine adds the 1-based line number to the error context.
func (e *ConfigError) WithLine(line int) *ConfigError {
	e.Line = line
	return e
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	var parts []string
	if e.File != "" {
		parts = append(parts, fmt.Sprintf("file=%s", e.File))
	}
	if e.Section != "" {
		parts = append(parts, fmt.Sprintf("section=%s", e.Section))
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line=%d", e.Line))
	}
	return e.format("config error", parts)
}

// Is checks if this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// MisuseError represents a component being used against its protocol.
//
// Example:
//
//	err := errors.NewMisuseError("pipe", "write", errors.ErrWriteAfterEnd)
//	fmt.Println(err) // "misuse [component=pipe, op=write]: can't write to pipe after end()"
type MisuseError struct {
	baseError
	Component string
	Operation string
}

// NewMisuseError creates a new MisuseError. The cause's message becomes the
// error message.
func NewMisuseError(component, operation string, cause error) *MisuseError {
	msg := "misuse"
	if cause != nil {
		msg = cause.Error()
	}
	return &MisuseError{
		baseError: baseError{
			message:  msg,
			cause:    cause,
			severity: SeverityError,
		},
		Component: component,
		Operation: operation,
	}
}

// WithDetail appends detail to the message, e.g. the offending member name.
func (e *MisuseError) WithDetail(detail string) *MisuseError {
	e.message = fmt.Sprintf("%s: %s", e.message, detail)
	return e
}

// Error returns the formatted error message. The cause is already part of the
// message, so it is not repeated.
func (e *MisuseError) Error() string {
	var parts []string
	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}
	prefix := "misuse"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("misuse [%s]", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *MisuseError) Is(target error) bool {
	if _, ok := target.(*MisuseError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StreamError wraps an error reported by an upstream stream or reader.
type StreamError struct {
	baseError
	Source string
}

// NewStreamError creates a new StreamError for the named source.
func NewStreamError(source string, cause error) *StreamError {
	return &StreamError{
		baseError: baseError{
			message:  "upstream error",
			cause:    cause,
			severity: SeverityError,
		},
		Source: source,
	}
}

// Error returns the formatted error message.
func (e *StreamError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	return e.format("stream error", parts)
}

// Is checks if this error matches the target.
func (e *StreamError) Is(target error) bool {
	if _, ok := target.(*StreamError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("section", "production")
//	fmt.Println(err) // "section 'production' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("unknown format").WithField("format").WithValue("xml")
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
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end
// users: typed errors flagged user-facing, and the semantic errors.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var capselaErr CapselaError
	if As(err, &capselaErr) {
		return capselaErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CapselaError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var capselaErr CapselaError
	if As(err, &capselaErr) {
		return capselaErr.Severity()
	}
	return SeverityError
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return err != nil && As(err, &cfgErr)
}

// IsMisuse reports whether err is, or wraps, a MisuseError.
func IsMisuse(err error) bool {
	var misuse *MisuseError
	return err != nil && As(err, &misuse)
}

// IsStreamError reports whether err is, or wraps, a StreamError.
func IsStreamError(err error) bool {
	var streamErr *StreamError
	return err != nil && As(err, &streamErr)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load config")
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
