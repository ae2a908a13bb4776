package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed log line.
type Entry struct {
	Time     time.Time `json:"time"`
	Priority Priority  `json:"priority"`
	Level    string    `json:"level"`
	Message  string    `json:"message"`
}

// Filter selects entries. Zero fields do not filter.
type Filter struct {
	// Priority keeps entries at this priority or more severe. It accepts
	// anything ParsePriority does; an unknown value does not filter.
	Priority string
	// Since keeps entries at or after this time.
	Since time.Time
	// Until keeps entries at or before this time.
	Until time.Time
	// Contains keeps entries whose message contains this substring.
	Contains string
}

var linePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) ([A-Z]+|PRIORITY\(-?\d+\)): (.*)$`)

// ParseLine parses a single line in the Log format, without its newline.
// Timestamps are read in local time, as they were written.
func ParseLine(line string) (Entry, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, fmt.Errorf("not a log line: %q", line)
	}
	t, err := time.ParseInLocation(TimeLayout, m[1], time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	p, err := parseLevelName(m[2])
	if err != nil {
		return Entry{}, err
	}
	return Entry{Time: t, Priority: p, Level: m[2], Message: m[3]}, nil
}

func parseLevelName(name string) (Priority, error) {
	if n, ok := strings.CutPrefix(name, "PRIORITY("); ok {
		v, err := strconv.Atoi(strings.TrimSuffix(n, ")"))
		return Priority(v), err
	}
	for p, n := range priorityNames {
		if n == name {
			return Priority(p), nil
		}
	}
	return 0, fmt.Errorf("unknown priority name %q", name)
}

// ReadEntries reads every entry from r. Lines that are not log lines continue
// the message of the entry before them, since messages may contain newlines;
// such lines before the first entry are dropped. Entries are returned in
// time order, ties keeping file order.
func ReadEntries(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var entries []Entry
	for scanner.Scan() {
		line := scanner.Text()
		entry, err := ParseLine(line)
		if err != nil {
			if n := len(entries); n > 0 {
				entries[n-1].Message += "\n" + line
			}
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Time.Compare(b.Time)
	})
	return entries, nil
}

// FilterEntries returns the entries matching every criterion in f.
func FilterEntries(entries []Entry, f Filter) []Entry {
	if f == (Filter{}) {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filter) matches(e Entry) bool {
	if f.Priority != "" {
		if limit, err := ParsePriority(f.Priority); err == nil && e.Priority > limit {
			return false
		}
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Time.After(f.Until) {
		return false
	}
	if f.Contains != "" && !strings.Contains(e.Message, f.Contains) {
		return false
	}
	return true
}

// ExportFormats lists the formats ExportEntries accepts.
var ExportFormats = []string{"json", "text", "csv"}

// ExportEntries writes entries to w as "json" (an indented array), "text"
// (log lines) or "csv" (with a header row).
func ExportEntries(w io.Writer, entries []Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return exportJSON(w, entries)
	case "text":
		return exportText(w, entries)
	case "csv":
		return exportCSV(w, entries)
	}
	return fmt.Errorf("unsupported export format: %s (supported: %s)", format, strings.Join(ExportFormats, ", "))
}

func exportJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func exportText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := io.WriteString(w, FormatLine(e.Time, e.Priority, e.Message)); err != nil {
			return fmt.Errorf("write text entry: %w", err)
		}
	}
	return nil
}

func exportCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "priority", "level", "message"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Time.Format(time.RFC3339),
			strconv.Itoa(int(e.Priority)),
			e.Level,
			e.Message,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
