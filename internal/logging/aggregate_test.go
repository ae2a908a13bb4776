package logging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

const sampleLog = `2024-03-01 10:00:02 ERROR: db connection lost
2024-03-01 10:00:00 INFO: server started port=8080
2024-03-01 10:00:01 DEBUG: config loaded
2024-03-01 10:00:03 WARNING: retrying
attempt=2
2024-03-01 10:00:04 NOTICE: recovered
`

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Entry
		wantErr bool
	}{
		{
			name: "info line",
			line: "1969-12-31 19:00:27 INFO: this is a test",
			want: Entry{Priority: Info, Level: "INFO", Message: "this is a test"},
		},
		{
			name: "message with colons",
			line: "2024-03-01 10:00:00 ERROR: open a: b: no such file",
			want: Entry{Priority: Error, Level: "ERROR", Message: "open a: b: no such file"},
		},
		{
			name: "empty message",
			line: "2024-03-01 10:00:00 DEBUG: ",
			want: Entry{Priority: Debug, Level: "DEBUG"},
		},
		{
			name: "out of range priority",
			line: "2024-03-01 10:00:00 PRIORITY(9): odd",
			want: Entry{Priority: 9, Level: "PRIORITY(9)", Message: "odd"},
		},
		{name: "unknown level", line: "2024-03-01 10:00:00 LOUD: x", wantErr: true},
		{name: "no timestamp", line: "INFO: x", wantErr: true},
		{name: "bad date", line: "2024-13-01 10:00:00 INFO: x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLine error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Priority != tt.want.Priority || got.Level != tt.want.Level || got.Message != tt.want.Message {
				t.Errorf("ParseLine = %+v, want %+v", got, tt.want)
			}
			if ts := got.Time.Format(TimeLayout); ts != tt.line[:19] {
				t.Errorf("time = %s, want %s", ts, tt.line[:19])
			}
		})
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	at := mustTime(t, "2011-02-17 14:03:27")
	line := FormatLine(at, Critical, "disk failing sector=12")

	e, err := ParseLine(strings.TrimSuffix(line, "\n"))
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if !e.Time.Equal(at) || e.Priority != Critical || e.Message != "disk failing sector=12" {
		t.Errorf("round trip = %+v", e)
	}
}

func TestReadEntries(t *testing.T) {
	entries, err := ReadEntries(strings.NewReader("stray line\n" + sampleLog))
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	wantMessages := []string{
		"server started port=8080",
		"config loaded",
		"db connection lost",
		"retrying\nattempt=2",
		"recovered",
	}
	for i, want := range wantMessages {
		if entries[i].Message != want {
			t.Errorf("entry %d message = %q, want %q", i, entries[i].Message, want)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Time.Before(entries[i-1].Time) {
			t.Errorf("entries not sorted at %d", i)
		}
	}
}

func TestReadEntriesEmpty(t *testing.T) {
	entries, err := ReadEntries(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestFilterEntries(t *testing.T) {
	entries, err := ReadEntries(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "empty filter keeps everything",
			filter: Filter{},
			want:   []string{"INFO", "DEBUG", "ERROR", "WARNING", "NOTICE"},
		},
		{
			name:   "priority keeps more severe",
			filter: Filter{Priority: "warning"},
			want:   []string{"ERROR", "WARNING"},
		},
		{
			name:   "numeric priority",
			filter: Filter{Priority: "5"},
			want:   []string{"ERROR", "WARNING", "NOTICE"},
		},
		{
			name:   "unknown priority does not filter",
			filter: Filter{Priority: "loud"},
			want:   []string{"INFO", "DEBUG", "ERROR", "WARNING", "NOTICE"},
		},
		{
			name:   "time range is inclusive",
			filter: Filter{Since: mustTime(t, "2024-03-01 10:00:01"), Until: mustTime(t, "2024-03-01 10:00:03")},
			want:   []string{"DEBUG", "ERROR", "WARNING"},
		},
		{
			name:   "contains",
			filter: Filter{Contains: "attempt"},
			want:   []string{"WARNING"},
		},
		{
			name:   "criteria combine",
			filter: Filter{Priority: "error", Contains: "retry"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterEntries(entries, tt.filter)
			var levels []string
			for _, e := range got {
				levels = append(levels, e.Level)
			}
			if strings.Join(levels, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", levels, tt.want)
			}
		})
	}
}

func TestExportEntries(t *testing.T) {
	entries, err := ReadEntries(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, entries, "json"); err != nil {
			t.Fatalf("ExportEntries failed: %v", err)
		}
		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 5 {
			t.Fatalf("expected 5 entries, got %d", len(decoded))
		}
		if decoded[0]["message"] != "server started port=8080" || decoded[0]["priority"] != float64(Info) {
			t.Errorf("first entry = %v", decoded[0])
		}
	})

	t.Run("json without entries is an empty array", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, nil, "JSON"); err != nil {
			t.Fatalf("ExportEntries failed: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("text reproduces the log", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, entries, "text"); err != nil {
			t.Fatalf("ExportEntries failed: %v", err)
		}
		again, err := ReadEntries(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if len(again) != len(entries) {
			t.Fatalf("got %d entries back, want %d", len(again), len(entries))
		}
		for i := range entries {
			if again[i].Message != entries[i].Message || !again[i].Time.Equal(entries[i].Time) {
				t.Errorf("entry %d = %+v, want %+v", i, again[i], entries[i])
			}
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportEntries(&buf, entries, "csv"); err != nil {
			t.Fatalf("ExportEntries failed: %v", err)
		}
		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 6 {
			t.Fatalf("expected header plus 5 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "time,priority,level,message" {
			t.Errorf("header = %v", records[0])
		}
		if records[4][3] != "retrying\nattempt=2" {
			t.Errorf("multi-line message = %q", records[4][3])
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		err := ExportEntries(&bytes.Buffer{}, entries, "xml")
		if err == nil || !strings.Contains(err.Error(), "unsupported export format") {
			t.Errorf("expected unsupported format error, got %v", err)
		}
	})
}
