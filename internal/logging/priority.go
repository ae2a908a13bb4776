package logging

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Priority is an RFC 5424 severity. Lower values are more severe.
type Priority int

// The eight RFC 5424 priorities.
const (
	Emergency Priority = iota // system is unusable
	Alert                     // action must be taken immediately
	Critical                  // critical conditions
	Error                     // error conditions
	Warning                   // warning conditions
	Notice                    // normal but significant condition
	Info                      // informational messages
	Debug                     // debug-level messages
)

var priorityNames = [...]string{
	Emergency: "EMERGENCY",
	Alert:     "ALERT",
	Critical:  "CRITICAL",
	Error:     "ERROR",
	Warning:   "WARNING",
	Notice:    "NOTICE",
	Info:      "INFO",
	Debug:     "DEBUG",
}

// slog levels for each priority. The slog built-ins keep their meaning
// (Debug -4, Info 0, Warn 4, Error 8); the extra priorities sit between and
// above them.
var priorityLevels = [...]slog.Level{
	Emergency: slog.LevelError + 6,
	Alert:     slog.LevelError + 4,
	Critical:  slog.LevelError + 2,
	Error:     slog.LevelError,
	Warning:   slog.LevelWarn,
	Notice:    slog.LevelInfo + 2,
	Info:      slog.LevelInfo,
	Debug:     slog.LevelDebug,
}

// String returns the upper-case name used in log lines.
func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PRIORITY(%d)", int(p))
	}
	return priorityNames[p]
}

// Valid reports whether p is one of the eight defined priorities.
func (p Priority) Valid() bool {
	return p >= Emergency && p <= Debug
}

// IsError reports whether lines of this priority go to the error writer.
func (p Priority) IsError() bool {
	return p < Notice
}

// Level returns the slog level p is logged at.
func (p Priority) Level() slog.Level {
	switch {
	case p < Emergency:
		return priorityLevels[Emergency]
	case p > Debug:
		return priorityLevels[Debug]
	}
	return priorityLevels[p]
}

// PriorityFromLevel maps a slog level to the most severe priority whose level
// does not exceed it.
func PriorityFromLevel(level slog.Level) Priority {
	for p := Emergency; p < Debug; p++ {
		if level >= priorityLevels[p] {
			return p
		}
	}
	return Debug
}

// ParsePriority accepts a priority name (case-insensitive, "warn" and "err"
// included) or its number.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "WARN":
		return Warning, nil
	case "ERR":
		return Error, nil
	case "CRIT":
		return Critical, nil
	case "EMERG":
		return Emergency, nil
	}
	for p, n := range priorityNames {
		if n == name {
			return Priority(p), nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil && Priority(n).Valid() {
		return Priority(n), nil
	}
	return 0, fmt.Errorf("unknown priority %q (valid: %s)", s, strings.Join(ValidPriorities(), ", "))
}

// ValidPriorities returns the priority names from most to least severe.
func ValidPriorities() []string {
	return slices.Clone(priorityNames[:])
}
