package ini

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"

	capselaerrors "github.com/capsela/capsela-util/internal/errors"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"7", 7.0},
		{"07", 7.0},
		{"7.00000", 7.0},
		{"-54", -54.0},
		{"+5", 5.0},
		{".5", 0.5},
		{"5.", 5.0},
		{"1e3", 1000.0},
		{"2.5E-1", 0.25},
		{" 12 ", 12.0},
		{"0x1F", 0.0},
		{"0b101", 0.0},
		{"0o17", 0.0},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"1e400", math.Inf(1)},
		{"7 days", "7 days"},
		{"which month?", "which month?"},
		{"12abc", "12abc"},
		{"-0x1F", "-0x1F"},
		{"1_000", "1_000"},
		{"infinity", "infinity"},
		{"1 2", "1 2"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := coerce(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("coerce(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestCoerce_EmptyIsNaN(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		f, ok := coerce(raw).(float64)
		if !ok || !math.IsNaN(f) {
			t.Errorf("coerce(%q) = %v, want NaN", raw, coerce(raw))
		}
	}
}

func TestParse_Numbers(t *testing.T) {
	doc, err := Parse("[general]\n" +
		"days_this_week = 7\n" +
		"days_last_week =  07\n" +
		"days_next_week =  7.00000\n" +
		"days_till_xmas =  -54\n" +
		"days_till_bday =  7 days\n" +
		"days_in_month = which month?\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Section{
		"days_this_week": 7.0,
		"days_last_week": 7.0,
		"days_next_week": 7.0,
		"days_till_xmas": -54.0,
		"days_till_bday": "7 days",
		"days_in_month":  "which month?",
	}
	if diff := cmp.Diff(want, doc["general"]); diff != "" {
		t.Errorf("general mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MultiSection(t *testing.T) {
	doc, err := Parse("[general]\n" +
		"pool.width = 7\n" +
		"pool.length = 17\n" +
		"circumference = 32\n" +
		"[production : general]\n" +
		"pool.width = 8\n" +
		"[development]\n" +
		"pool.depth = 5\n" +
		"[testing : production]\n" +
		"pool.width = 18\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Document{
		"general": Section{
			"pool":          Section{"width": 7.0, "length": 17.0},
			"circumference": 32.0,
		},
		"production": Section{
			"pool":          Section{"width": 8.0, "length": 17.0},
			"circumference": 32.0,
		},
		"development": Section{
			"pool": Section{"depth": 5.0},
		},
		"testing": Section{
			"pool":          Section{"width": 18.0, "length": 17.0},
			"circumference": 32.0,
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_InheritanceIsSnapshot(t *testing.T) {
	doc, err := Parse("[a]\nfoo.bar = 3\n[b : a]\nfoo.bar = 4\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Document{
		"a": Section{"foo": Section{"bar": 3.0}},
		"b": Section{"foo": Section{"bar": 4.0}},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RootSection(t *testing.T) {
	doc, err := Parse("bedtime = 8 o'clock\nzip.code = 10002")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	root := doc[RootSection]
	if got := root.GetString("bedtime"); got != "8 o'clock" {
		t.Errorf("bedtime = %q", got)
	}
	if got := root.GetFloat("zip.code"); got != 10002 {
		t.Errorf("zip.code = %v", got)
	}
	if got := root.GetInt("zip.code") + 1; got != 10003 {
		t.Errorf("zip.code + 1 = %v", got)
	}
}

func TestParse_Syntax(t *testing.T) {
	doc, err := Parse("; leading comment\r\n" +
		"[main]\r" +
		"  ; indented comment\n" +
		"\n" +
		"quoted = \"hello world\"\n" +
		"single='x'   \n" +
		"  spaced   =   value with spaces  \n" +
		"[ other:main ]\n" +
		"empty.zero = 0\n" +
		"empty.zero.child = 1\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Document{
		"main": Section{
			"quoted": "hello world",
			"single": "x",
			"spaced": "value with spaces",
		},
		"other": Section{
			"quoted": "hello world",
			"single": "x",
			"spaced": "value with spaces",
			"empty":  Section{"zero": Section{"child": 1.0}},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		sentinel error
		line     int
	}{
		{
			name:     "malformed line",
			text:     "[a]\nx = 1\nnot an assignment\n",
			sentinel: capselaerrors.ErrMalformedLine,
			line:     3,
		},
		{
			name:     "bad section name",
			text:     "[a-b]\n",
			sentinel: capselaerrors.ErrMalformedLine,
			line:     1,
		},
		{
			name:     "undefined parent",
			text:     "[child : parent]\n[parent]\n",
			sentinel: capselaerrors.ErrUndefinedParent,
			line:     1,
		},
		{
			name:     "dotted key through a scalar",
			text:     "[a]\nhost = example\nhost.port = 80\n",
			sentinel: capselaerrors.ErrKeyConflict,
			line:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.sentinel)
			}
			var cfgErr *capselaerrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected a ConfigError, got %T", err)
			}
			if cfgErr.Line != tt.line {
				t.Errorf("Line = %d, want %d", cfgErr.Line, tt.line)
			}
		})
	}
}

func TestParse_MalformedLineNamesContent(t *testing.T) {
	_, err := Parse("[a]\nwhat is this\n")
	if err == nil || !strings.Contains(err.Error(), "what is this") {
		t.Errorf("error should name the offending line, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	doc, err := ParseFile("testdata/config.ini")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if got := doc.Sections(); !cmp.Equal(got, []string{"development", "production", "testing"}) {
		t.Errorf("Sections() = %v", got)
	}

	sec := doc["testing"]
	checks := map[string]any{
		"app.name":     "capsela",
		"app.port":     8080.0,
		"db.host":      "localhost",
		"db.pool.size": 1.0,
		"log.level":    "debug",
	}
	for path, want := range checks {
		got, ok := sec.Lookup(path)
		if !ok || got != want {
			t.Errorf("testing.%s = %v (found %v), want %v", path, got, ok, want)
		}
	}

	if got := doc["production"].GetString("log.level"); got != "info" {
		t.Errorf("production log.level = %q, want info", got)
	}
}

func TestParseFile_Broken(t *testing.T) {
	_, err := ParseFile("testdata/broken.ini")
	var cfgErr *capselaerrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigError, got %v", err)
	}
	if cfgErr.File != "testdata/broken.ini" || cfgErr.Line != 3 {
		t.Errorf("error context = file %q line %d", cfgErr.File, cfgErr.Line)
	}
}

func TestParseFile_Missing(t *testing.T) {
	if _, err := ParseFile("testdata/nope.ini"); !capselaerrors.IsConfigError(err) {
		t.Errorf("expected a ConfigError, got %v", err)
	}
}

func TestParseFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/app.ini", []byte("[x]\ny = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFS(fs, "/etc/app.ini")
	if err != nil {
		t.Fatalf("ParseFS() error = %v", err)
	}
	if got := doc["x"].GetInt("y"); got != 2 {
		t.Errorf("x.y = %d, want 2", got)
	}
}

func TestMerge(t *testing.T) {
	target := Section{
		"bedtime": "8 o'clock",
		"alpha":   245.0,
		"beta":    "7:30",
		"gamma":   Section{"x": "yes", "y": "no"},
		"zip":     Section{"code": 10002.0, "line": 275.0},
	}
	payload := Section{
		"bedtime": "7 o'clock",
		"alpha":   Section{"channel": 23.0, "sheet": 54.0},
		"zip":     Section{"code": Section{"shout": "yabba-dabba-doo"}, "tie": 475.0},
		"gamma":   "maybe",
		"monkeys": 1000000.0,
	}

	Merge(target, payload)

	want := Section{
		"bedtime": "7 o'clock",
		"alpha":   Section{"channel": 23.0, "sheet": 54.0},
		"beta":    "7:30",
		"gamma":   "maybe",
		"zip":     Section{"code": Section{"shout": "yabba-dabba-doo"}, "line": 275.0, "tie": 475.0},
		"monkeys": 1000000.0,
	}
	if diff := cmp.Diff(want, target); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_CopiesPayload(t *testing.T) {
	target := Section{}
	payload := Section{"db": Section{"host": "a"}}

	Merge(target, payload)
	payload["db"].(Section)["host"] = "b"

	if got := target.GetString("db.host"); got != "a" {
		t.Errorf("target changed with payload: db.host = %q", got)
	}
}

func TestSectionHelpers(t *testing.T) {
	sec := Section{
		"db":   Section{"port": 5432.0, "tls": "true"},
		"name": "capsela",
	}

	if _, ok := sec.Lookup("db.missing"); ok {
		t.Error("Lookup(db.missing) should fail")
	}
	if _, ok := sec.Lookup("name.deeper"); ok {
		t.Error("Lookup through a scalar should fail")
	}
	if !sec.GetBool("db.tls") {
		t.Error("GetBool(db.tls) = false")
	}
	if got := sec.GetString("db.port"); got != "5432" {
		t.Errorf("GetString(db.port) = %q", got)
	}

	sub, ok := sec.Sub("db")
	if !ok || sub.GetInt("port") != 5432 {
		t.Errorf("Sub(db) = %v, %v", sub, ok)
	}

	flat := sec.Flatten()
	want := map[string]any{"db.port": 5432.0, "db.tls": "true", "name": "capsela"}
	if diff := cmp.Diff(want, flat); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}

	m := sec.Map()
	if _, isPlain := m["db"].(map[string]any); !isPlain {
		t.Errorf("Map() should produce plain maps, got %T", m["db"])
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	doc, err := Parse("top = level\n" +
		"[production]\n" +
		"app.name = capsela\n" +
		"app.port = 8080\n" +
		"ratio = 0.25\n" +
		"big = 1e21\n" +
		"inf = -Infinity\n" +
		"blank =\n" +
		"padded = \" spaced \"\n" +
		"[development : production]\n" +
		"app.port = 3000\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var buf bytes.Buffer
	if err := Format(&buf, doc); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	again, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("Parse(Format()) error = %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(doc, again, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\n%s", diff, buf.String())
	}

	out := buf.String()
	if !strings.HasPrefix(out, "top") {
		t.Errorf("root keys should come first, got:\n%s", out)
	}
	if strings.Index(out, "[development]") > strings.Index(out, "[production]") {
		t.Errorf("sections should be sorted, got:\n%s", out)
	}
}

func TestFormat_BacktickValues(t *testing.T) {
	doc := Document{"app": Section{"cmd": "a`b", "plain": "ab"}}

	var buf bytes.Buffer
	if err := Format(&buf, doc); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"""a`+"`"+`b"""`) {
		t.Errorf("backtick value should be triple-quoted, got:\n%s", out)
	}

	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Format()) error = %v\n%s", err, out)
	}
	if got := again["app"]["plain"]; got != "ab" {
		t.Errorf("plain = %q, want %q", got, "ab")
	}
	if got, want := again["app"]["cmd"], `""a`+"`"+`b""`; got != want {
		t.Errorf("cmd = %q, want %q", got, want)
	}
}
