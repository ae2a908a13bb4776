// Package util holds text helpers for the capsela command's terminal output.
package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "..."

// Truncate shortens s to width visual columns, ending it with Ellipsis. Escape
// sequences are kept and wide characters are measured by the columns they
// occupy. A width of zero or less leaves s unchanged.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	if width <= len(Ellipsis) {
		return Ellipsis[:width]
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// PadRight pads s with spaces to width visual columns.
func PadRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// FirstLine returns the first line of s, noting how many lines were dropped.
func FirstLine(s string) string {
	first, rest, found := strings.Cut(s, "\n")
	if !found {
		return s
	}
	return fmt.Sprintf("%s (+%d lines)", first, strings.Count(rest, "\n")+1)
}
