package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ConfigError Tests
// -----------------------------------------------------------------------------

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "no context",
			err:  NewConfigError("bad input", nil),
			want: "config error: bad input",
		},
		{
			name: "with line and cause",
			err:  NewConfigError("malformed line: foo", ErrMalformedLine).WithLine(3),
			want: "config error [line=3]: malformed line: foo: malformed line",
		},
		{
			name: "with file and section",
			err:  NewConfigError("section [prod] does not exist", ErrSectionNotFound).WithFile("config.ini").WithSection("prod"),
			want: "config error [file=config.ini, section=prod]: section [prod] does not exist: section does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigError_Is(t *testing.T) {
	err := NewConfigError("missing", ErrSectionNotFound)

	if !errors.Is(err, ErrSectionNotFound) {
		t.Error("expected errors.Is to match the cause")
	}
	if !errors.Is(err, &ConfigError{}) {
		t.Error("expected errors.Is to match the ConfigError type")
	}
	if errors.Is(err, ErrMalformedLine) {
		t.Error("did not expect a match for an unrelated sentinel")
	}
	if !err.IsUserFacing() {
		t.Error("config errors should be user facing")
	}
}

// -----------------------------------------------------------------------------
// MisuseError Tests
// -----------------------------------------------------------------------------

func TestMisuseError(t *testing.T) {
	err := NewMisuseError("pipe", "write", ErrWriteAfterEnd)

	want := "misuse [component=pipe, op=write]: can't write to pipe after end()"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrWriteAfterEnd) {
		t.Error("expected errors.Is to match ErrWriteAfterEnd")
	}
	if !IsMisuse(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsMisuse should see through wrapping")
	}
	if IsConfigError(err) {
		t.Error("a misuse error is not a config error")
	}
}

func TestMisuseError_WithDetail(t *testing.T) {
	err := NewMisuseError("class", "extend", ErrMixinConflict).WithDetail(`property "on"`)

	want := `misuse [component=class, op=extend]: member present in two different mixins: property "on"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// StreamError Tests
// -----------------------------------------------------------------------------

func TestStreamError(t *testing.T) {
	cause := New("connection reset")
	err := NewStreamError("reader", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the upstream cause")
	}
	if !IsStreamError(err) {
		t.Error("IsStreamError() = false, want true")
	}
	want := "stream error [source=reader]: upstream error: connection reset"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("section", "production")

	if got := err.Error(); got != "section 'production' not found" {
		t.Errorf("Error() = %q", got)
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}

	wrapped := err.WithCause(ErrSectionNotFound)
	if !errors.Is(wrapped, ErrSectionNotFound) {
		t.Error("expected errors.Is to match the cause")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("unknown format").WithField("format").WithValue("xml")

	want := "validation error [field=format, value=xml]: unknown format"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("validation errors should match ErrInvalidInput")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityDebug},
		{"plain", New("boom"), SeverityError},
		{"not found", NewNotFoundError("file", "x"), SeverityWarning},
		{"wrapped config", Wrap(NewConfigError("bad", nil), "loading"), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if IsUserFacing(New("internal")) {
		t.Error("plain errors should not be user facing")
	}
	if !IsUserFacing(Wrapf(NewValidationError("bad"), "step %d", 2)) {
		t.Error("wrapped validation errors should be user facing")
	}
	if IsUserFacing(NewMisuseError("monitor", "add", ErrReportsClosed)) {
		t.Error("misuse errors are programming errors, not user facing")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}

	err := Wrap(ErrNoData, "buffering stream")
	if err.Error() != "buffering stream: no data received" {
		t.Errorf("Wrap() = %q", err.Error())
	}
	if !errors.Is(err, ErrNoData) {
		t.Error("Wrap should preserve the chain")
	}
}
