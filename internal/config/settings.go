package config

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/ini"
)

// DefaultEnvPrefix prefixes environment variables that override settings:
// CAPSELA_DB_HOST overrides db.host.
const DefaultEnvPrefix = "CAPSELA"

// Settings is a read-only view of a loaded section with environment
// overrides. Keys are dotted paths and, as with viper, case-insensitive.
type Settings struct {
	v *viper.Viper
}

// SettingsOption configures Settings.
type SettingsOption func(*settingsOptions)

type settingsOptions struct {
	envPrefix string
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix turns
// environment overrides off.
func WithEnvPrefix(prefix string) SettingsOption {
	return func(o *settingsOptions) { o.envPrefix = prefix }
}

// NewSettings wraps sec.
func NewSettings(sec ini.Section, opts ...SettingsOption) (*Settings, error) {
	o := settingsOptions{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	if o.envPrefix != "" {
		v.SetEnvPrefix(o.envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	if err := v.MergeConfigMap(sec.Map()); err != nil {
		return nil, errors.Wrap(err, "load settings")
	}
	return &Settings{v: v}, nil
}

// LoadSettings loads the mode section of dir and wraps it.
func (l *Loader) LoadSettings(dir, mode string, opts ...SettingsOption) (*Settings, error) {
	sec, err := l.Load(dir, mode)
	if err != nil {
		return nil, err
	}
	return NewSettings(sec, opts...)
}

// Mode returns the mode the settings were loaded for.
func (s *Settings) Mode() string {
	return s.GetString("mode")
}

// Get returns the value at key, or nil.
func (s *Settings) Get(key string) any {
	return s.v.Get(key)
}

// IsSet reports whether key has a value.
func (s *Settings) IsSet(key string) bool {
	return s.v.IsSet(key)
}

// Keys returns every leaf key, sorted.
func (s *Settings) Keys() []string {
	keys := s.v.AllKeys()
	slices.Sort(keys)
	return keys
}

// All returns the settings as nested maps, overrides applied.
func (s *Settings) All() map[string]any {
	return s.v.AllSettings()
}

// GetString returns the value at key as a string. Whole numbers print
// without a decimal point.
func (s *Settings) GetString(key string) string {
	return cast.ToString(s.v.Get(key))
}

// GetInt returns the value at key as an int, or 0.
func (s *Settings) GetInt(key string) int {
	return cast.ToInt(s.v.Get(key))
}

// GetFloat64 returns the value at key as a float64, or 0.
func (s *Settings) GetFloat64(key string) float64 {
	return cast.ToFloat64(s.v.Get(key))
}

// GetBool returns the value at key as a bool. "true", "1" and non-zero
// numbers are true.
func (s *Settings) GetBool(key string) bool {
	return cast.ToBool(s.v.Get(key))
}

// GetDuration returns the value at key as a duration. Strings use
// time.ParseDuration syntax; bare numbers are seconds.
func (s *Settings) GetDuration(key string) time.Duration {
	switch v := s.v.Get(key).(type) {
	case float64:
		return seconds(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return seconds(f)
		}
		return cast.ToDuration(v)
	case nil:
		return 0
	default:
		return cast.ToDuration(v)
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// GetStringSlice returns the value at key split on commas, each element
// trimmed.
func (s *Settings) GetStringSlice(key string) []string {
	return splitList(s.GetString(key))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Decode fills the struct pointed to by out, matching keys to fields by
// their mapstructure tags. Values convert weakly: "8080" fills an int,
// "5s" a time.Duration and "a, b" a []string.
func (s *Settings) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			trimStringsHook,
		),
	})
	if err != nil {
		return errors.Wrap(err, "create decoder")
	}
	if err := dec.Decode(s.v.AllSettings()); err != nil {
		return errors.NewValidationError("settings do not fit the target").WithCause(err)
	}
	return nil
}

// trimStringsHook trims the elements StringToSliceHookFunc leaves padded.
func trimStringsHook(from, _ reflect.Value) (any, error) {
	if !from.IsValid() {
		return nil, nil
	}
	if ss, ok := from.Interface().([]string); ok {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = strings.TrimSpace(s)
		}
		return out, nil
	}
	return from.Interface(), nil
}
