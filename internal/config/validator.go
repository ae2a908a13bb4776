package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/capsela/capsela-util/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "log.max_size_mb")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// modePattern matches names usable as an INI section header.
var modePattern = regexp.MustCompile(`^\w+$`)

// ValidOutputFormats returns the formats documents can be printed in.
func ValidOutputFormats() []string {
	return []string{"json", "yaml", "toml", "ini"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if !modePattern.MatchString(c.Mode) {
		errs = append(errs, ValidationError{
			Field:   "mode",
			Value:   c.Mode,
			Message: "must be a section name (letters, digits and underscores)",
		})
	}

	if c.Output.Format != "" && !slices.Contains(ValidOutputFormats(), strings.ToLower(c.Output.Format)) {
		errs = append(errs, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}

	return append(errs, c.validateLog()...)
}

func (c *Config) validateLog() []ValidationError {
	var errs []ValidationError

	if c.Log.Level != "" {
		if _, err := logging.ParsePriority(c.Log.Level); err != nil {
			errs = append(errs, ValidationError{
				Field:   "log.level",
				Value:   c.Log.Level,
				Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidPriorities(), ", "))),
			})
		}
	}

	const maxLogSizeMB = 1000
	if c.Log.MaxSizeMB < 0 || c.Log.MaxSizeMB > maxLogSizeMB {
		errs = append(errs, ValidationError{
			Field:   "log.max_size_mb",
			Value:   c.Log.MaxSizeMB,
			Message: fmt.Sprintf("must be between 0 and %d", maxLogSizeMB),
		})
	}

	if c.Log.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "log.max_backups",
			Value:   c.Log.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errs
}
