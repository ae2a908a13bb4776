package ini

import (
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// Merge overlays payload onto target, recursively. Where both sides hold a
// section the two are merged; everywhere else the payload value replaces the
// target's. Sections taken from payload are copied, so later changes to
// payload do not leak into target.
func Merge(target, payload Section) {
	for k, pv := range payload {
		tm, targetIsMap := asSection(target[k])
		pm, payloadIsMap := asSection(pv)
		if targetIsMap && payloadIsMap {
			Merge(tm, pm)
			continue
		}
		target[k] = cloneValue(pv)
	}
}

func asSection(v any) (Section, bool) {
	switch x := v.(type) {
	case Section:
		return x, x != nil
	case map[string]any:
		return Section(x), x != nil
	}
	return nil, false
}

// Clone returns a deep copy of s.
func (s Section) Clone() Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	if sec, ok := asSection(v); ok {
		return sec.Clone()
	}
	return v
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, s := range d {
		out[k] = s.Clone()
	}
	return out
}

// Lookup resolves a dotted path such as "db.host".
func (s Section) Lookup(path string) (any, bool) {
	var cur any = s
	for _, part := range strings.Split(path, ".") {
		sec, ok := asSection(cur)
		if !ok {
			return nil, false
		}
		cur, ok = sec[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetString returns the value at path converted to a string, or "".
func (s Section) GetString(path string) string {
	v, _ := s.Lookup(path)
	return toString(v)
}

// GetFloat returns the value at path converted to a float64, or 0.
func (s Section) GetFloat(path string) float64 {
	v, _ := s.Lookup(path)
	return cast.ToFloat64(v)
}

// GetInt returns the value at path converted to an int, or 0.
func (s Section) GetInt(path string) int {
	v, _ := s.Lookup(path)
	return cast.ToInt(v)
}

// GetBool returns the value at path converted to a bool, or false.
func (s Section) GetBool(path string) bool {
	v, _ := s.Lookup(path)
	return cast.ToBool(v)
}

// Sub returns the nested section at path.
func (s Section) Sub(path string) (Section, bool) {
	v, ok := s.Lookup(path)
	if !ok {
		return nil, false
	}
	return asSection(v)
}

// Map converts s to plain nested map[string]any values, the shape expected by
// encoders and by viper.
func (s Section) Map() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		if sec, ok := asSection(v); ok {
			out[k] = sec.Map()
			continue
		}
		out[k] = v
	}
	return out
}

// Flatten returns every scalar in s keyed by its dotted path.
func (s Section) Flatten() map[string]any {
	out := make(map[string]any)
	s.flatten("", out)
	return out
}

func (s Section) flatten(prefix string, out map[string]any) {
	for k, v := range s {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sec, ok := asSection(v); ok {
			sec.flatten(key, out)
			continue
		}
		out[key] = v
	}
}

func toString(v any) string {
	if f, ok := v.(float64); ok {
		return formatValue(f)
	}
	return cast.ToString(v)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
