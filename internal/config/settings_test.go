package config

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/ini"
)

func testSettings(t *testing.T, opts ...SettingsOption) *Settings {
	t.Helper()
	doc, err := ini.Parse(`[production]
mode = production
app.name = capsela
app.debug = 0
db.host = db.internal
db.port = 5432
db.timeout = 2.5
db.retry = 500ms
db.replicas = "a.internal, b.internal"
feature.beta = true
`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s, err := NewSettings(doc["production"], opts...)
	if err != nil {
		t.Fatalf("NewSettings failed: %v", err)
	}
	return s
}

func TestSettingsGetters(t *testing.T) {
	s := testSettings(t, WithEnvPrefix(""))

	if got := s.Mode(); got != "production" {
		t.Errorf("Mode() = %q", got)
	}
	if got := s.GetString("db.host"); got != "db.internal" {
		t.Errorf("GetString(db.host) = %q", got)
	}
	if got := s.GetString("db.port"); got != "5432" {
		t.Errorf("GetString(db.port) = %q, want 5432", got)
	}
	if got := s.GetInt("db.port"); got != 5432 {
		t.Errorf("GetInt(db.port) = %d", got)
	}
	if got := s.GetFloat64("db.timeout"); got != 2.5 {
		t.Errorf("GetFloat64(db.timeout) = %v", got)
	}
	if got := s.GetDuration("db.timeout"); got != 2500*time.Millisecond {
		t.Errorf("GetDuration(db.timeout) = %v", got)
	}
	if got := s.GetDuration("db.retry"); got != 500*time.Millisecond {
		t.Errorf("GetDuration(db.retry) = %v", got)
	}
	if got := s.GetDuration("missing"); got != 0 {
		t.Errorf("GetDuration(missing) = %v", got)
	}
	if !s.GetBool("feature.beta") || s.GetBool("app.debug") || s.GetBool("missing") {
		t.Error("GetBool mismatch")
	}
	if diff := cmp.Diff([]string{"a.internal", "b.internal"}, s.GetStringSlice("db.replicas")); diff != "" {
		t.Errorf("GetStringSlice mismatch (-want +got):\n%s", diff)
	}
	if s.GetStringSlice("missing") != nil {
		t.Error("GetStringSlice(missing) should be nil")
	}
	if !s.IsSet("app.name") || s.IsSet("app.missing") {
		t.Error("IsSet mismatch")
	}
	if s.Get("db") == nil {
		t.Error("Get(db) should return the nested map")
	}
}

func TestSettingsKeys(t *testing.T) {
	s := testSettings(t, WithEnvPrefix(""))
	want := []string{
		"app.debug", "app.name",
		"db.host", "db.port", "db.replicas", "db.retry", "db.timeout",
		"feature.beta", "mode",
	}
	if diff := cmp.Diff(want, s.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsEnvOverride(t *testing.T) {
	t.Setenv("CAPSELA_DB_HOST", "override.internal")
	t.Setenv("CAPSELA_DB_PORT", "6543")
	t.Setenv("APP_DB_HOST", "other.internal")

	s := testSettings(t)
	if got := s.GetString("db.host"); got != "override.internal" {
		t.Errorf("db.host = %q, want override", got)
	}
	if got := s.GetInt("db.port"); got != 6543 {
		t.Errorf("db.port = %d, want 6543", got)
	}

	custom := testSettings(t, WithEnvPrefix("APP"))
	if got := custom.GetString("db.host"); got != "other.internal" {
		t.Errorf("db.host with APP prefix = %q", got)
	}

	off := testSettings(t, WithEnvPrefix(""))
	if got := off.GetString("db.host"); got != "db.internal" {
		t.Errorf("db.host without env = %q", got)
	}
}

func TestSettingsDecode(t *testing.T) {
	type dbConfig struct {
		Host     string        `mapstructure:"host"`
		Port     int           `mapstructure:"port"`
		Timeout  float64       `mapstructure:"timeout"`
		Retry    time.Duration `mapstructure:"retry"`
		Replicas []string      `mapstructure:"replicas"`
	}
	type appConfig struct {
		Mode string `mapstructure:"mode"`
		App  struct {
			Name  string `mapstructure:"name"`
			Debug bool   `mapstructure:"debug"`
		} `mapstructure:"app"`
		DB      dbConfig `mapstructure:"db"`
		Feature struct {
			Beta bool `mapstructure:"beta"`
		} `mapstructure:"feature"`
	}

	t.Setenv("CAPSELA_DB_PORT", "7000")
	s := testSettings(t)

	var cfg appConfig
	if err := s.Decode(&cfg); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := dbConfig{
		Host:     "db.internal",
		Port:     7000,
		Timeout:  2.5,
		Retry:    500 * time.Millisecond,
		Replicas: []string{"a.internal", "b.internal"},
	}
	if diff := cmp.Diff(want, cfg.DB); diff != "" {
		t.Errorf("DB mismatch (-want +got):\n%s", diff)
	}
	if cfg.Mode != "production" || cfg.App.Name != "capsela" || cfg.App.Debug || !cfg.Feature.Beta {
		t.Errorf("unexpected decode result: %+v", cfg)
	}
}

func TestSettingsDecodeMismatch(t *testing.T) {
	s := testSettings(t, WithEnvPrefix(""))

	var bad struct {
		DB struct {
			Host int `mapstructure:"host"`
		} `mapstructure:"db"`
	}
	err := s.Decode(&bad)
	if err == nil {
		t.Fatal("expected an error decoding a host name into an int")
	}
	var vErr *errors.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected a ValidationError, got %T", err)
	}
}

func TestSettingsNaN(t *testing.T) {
	doc, err := ini.Parse("[a]\nempty =\n")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSettings(doc["a"], WithEnvPrefix(""))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Get("empty").(float64); !ok || !math.IsNaN(v) {
		t.Errorf("empty value = %v, want NaN", s.Get("empty"))
	}
}

func TestLoaderLoadSettings(t *testing.T) {
	loader := newTestLoader(t, map[string]string{FileName: baseConfig})

	s, err := loader.LoadSettings(testDir, "development", WithEnvPrefix(""))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.Mode() != "development" || s.GetString("db.host") != "localhost" {
		t.Errorf("unexpected settings: %v", s.All())
	}

	if _, err := loader.LoadSettings(testDir, "missing"); !errors.Is(err, errors.ErrSectionNotFound) {
		t.Errorf("expected ErrSectionNotFound, got %v", err)
	}
}
