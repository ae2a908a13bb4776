package ini

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// decimalLiteral is a whole string that reads as a decimal number,
	// including a signed Infinity.
	decimalLiteral = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)$`)
	// prefixedLiteral is an unsigned hex, octal or binary integer.
	prefixedLiteral = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

// coerce turns a raw value into a float64 when the whole (trimmed) value is
// a number and leaves it a string otherwise.
//
// The rules are those of configuration files written for JavaScript
// tooling, which read a value v as isNaN(v) ? v : parseFloat(v):
//
//   - decimal literals, exponents and [+-]Infinity become their value;
//   - 0x, 0o and 0b integers count as numbers but parse to their leading 0;
//   - an empty value counts as a number but parses to NaN;
//   - anything else, like "12abc" or "1 2", stays a string.
func coerce(raw string) any {
	s := strings.TrimFunc(raw, isJSSpace)
	switch {
	case s == "":
		return math.NaN()
	case prefixedLiteral.MatchString(s):
		return 0.0
	case decimalLiteral.MatchString(s):
		return parseDecimal(s)
	}
	return raw
}

func isJSSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func parseDecimal(s string) float64 {
	unsigned := strings.TrimLeft(s, "+-")
	if unsigned == "Infinity" {
		if strings.HasPrefix(s, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	// Out-of-range literals come back as ±Inf or 0 along with ErrRange,
	// which is the value wanted.
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// falsy reports whether v would be treated as false by the same tooling:
// missing, zero, NaN or the empty string.
func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return x == 0 || math.IsNaN(x)
	case string:
		return x == ""
	case bool:
		return !x
	}
	return false
}

// formatValue renders a scalar so that parsing it again yields the same
// value.
func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		switch {
		case math.IsNaN(x):
			return ""
		case math.IsInf(x, 1):
			return "Infinity"
		case math.IsInf(x, -1):
			return "-Infinity"
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	}
	return toString(v)
}
