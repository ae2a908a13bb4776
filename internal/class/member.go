package class

import "regexp"

// Receiver is what a method is invoked on: an *Object for instance members,
// the *Class itself for static members.
type Receiver interface {
	Get(name string) any
	Set(name string, value any) error
	Call(name string, args ...any) (any, error)
}

// Super invokes the implementation a method overrides.
type Super func(args ...any) any

// Method is the single function shape used for instance methods, static
// methods and accessor halves. super is nil when the method overrides
// nothing.
type Method func(self Receiver, super Super, args ...any) any

type memberKind int

const (
	kindField memberKind = iota
	kindFunc
	kindAbstract
)

// Member is one entry of a member table: a concrete method, a plain value or
// the abstract marker.
type Member struct {
	kind  memberKind
	value any
	fn    Method
}

// Abstract marks a member that subclasses must override. A class whose
// resolved instance table holds it cannot be constructed.
var Abstract = Member{kind: kindAbstract}

// Func wraps a method implementation.
func Func(fn Method) Member {
	return Member{kind: kindFunc, fn: fn}
}

// Field wraps a plain value. On instance tables it acts as the default seen
// by every object until the object sets its own value.
func Field(v any) Member {
	return Member{kind: kindField, value: v}
}

// IsAbstract reports whether m is the abstract marker.
func (m Member) IsAbstract() bool { return m.kind == kindAbstract }

// IsFunc reports whether m is a concrete method.
func (m Member) IsFunc() bool { return m.kind == kindFunc }

// Value returns the value of a Field member.
func (m Member) Value() any { return m.value }

// Members is a member table keyed by name. Keys of the form "get X" and
// "set X" declare the halves of an accessor property X.
type Members map[string]Member

// InstanceMembers lets a bare member table act as a mixin source.
func (m Members) InstanceMembers() Members { return m }

// Source provides instance members to mix into a class.
type Source interface {
	InstanceMembers() Members
}

var accessorKey = regexp.MustCompile(`^(get|set) ([\w\d]+)$`)

// splitAccessor reports whether key names an accessor half and returns its
// kind ("get" or "set") and property name.
func splitAccessor(key string) (kind, prop string, ok bool) {
	m := accessorKey.FindStringSubmatch(key)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// slot is a resolved member. prev, when set, finds the implementation this
// slot overrides; it is consulted on every call so that replacing a parent
// method is visible to children calling super.
type slot struct {
	member Member
	prev   func() *slot
}

func (s *slot) call(self Receiver, args []any) any {
	var super Super
	if s.prev != nil {
		if prev := s.prev(); prev != nil && prev.member.kind == kindFunc {
			super = func(a ...any) any {
				return prev.call(self, a)
			}
		}
	}
	return s.member.fn(self, super, args...)
}

// asMethod accepts both Method values and plain function literals of the
// same shape.
func asMethod(v any) (Method, bool) {
	switch fn := v.(type) {
	case Method:
		return fn, fn != nil
	case func(Receiver, Super, ...any) any:
		return fn, fn != nil
	}
	return nil, false
}
