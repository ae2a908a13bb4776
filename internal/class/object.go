package class

import (
	"fmt"
	"sync"

	"github.com/capsela/capsela-util/internal/errors"
)

// Object is an instance of a Class. Its own fields shadow the class's Field
// defaults.
type Object struct {
	class *Class

	mu     sync.RWMutex
	fields map[string]any
}

// Class returns the class the object was constructed from.
func (o *Object) Class() *Class { return o.class }

// IsA reports whether o is an instance of c or of one of its subclasses.
func (o *Object) IsA(c *Class) bool { return o.class.IsSubclassOf(c) }

// Get reads a property: an accessor getter, then the object's own field, then
// the class member of that name. Methods are returned as Method values.
func (o *Object) Get(name string) any {
	if s := o.class.instanceSlot("get " + name); s != nil {
		return s.call(o, nil)
	}

	o.mu.RLock()
	v, ok := o.fields[name]
	o.mu.RUnlock()
	if ok {
		return v
	}

	s := o.class.instanceSlot(name)
	if s == nil {
		return nil
	}
	switch s.member.kind {
	case kindField:
		return s.member.value
	case kindFunc:
		return s.member.fn
	}
	return nil
}

// Has reports whether name resolves to anything on the object.
func (o *Object) Has(name string) bool {
	o.mu.RLock()
	_, ok := o.fields[name]
	o.mu.RUnlock()
	if ok {
		return true
	}
	return o.class.instanceSlot(name) != nil || o.class.instanceSlot("get "+name) != nil
}

// Set writes a property. Accessor properties route through their setter;
// assigning to one that has only a getter fails.
func (o *Object) Set(name string, value any) error {
	if s := o.class.instanceSlot("set " + name); s != nil {
		s.call(o, []any{value})
		return nil
	}
	if o.class.instanceSlot("get "+name) != nil {
		return errors.NewMisuseError("class", "set", errors.ErrAccessorLocked).
			WithDetail(fmt.Sprintf("%s.%s is read-only", o.class.name, name))
	}

	o.mu.Lock()
	o.fields[name] = value
	o.mu.Unlock()
	return nil
}

// Call invokes a method. A Method stored in one of the object's own fields
// takes precedence over the class's and is called without a super.
func (o *Object) Call(name string, args ...any) (any, error) {
	o.mu.RLock()
	v, ok := o.fields[name]
	o.mu.RUnlock()
	if ok {
		if fn, isMethod := asMethod(v); isMethod {
			return fn(o, nil, args...), nil
		}
		return nil, errors.NewMisuseError("class", "call", errors.ErrNotCallable).
			WithDetail(fmt.Sprintf("%s.%s", o.class.name, name))
	}
	return invoke(o, o.class.name, o.class.instanceSlot(name), name, args)
}

// String implements fmt.Stringer.
func (o *Object) String() string {
	return fmt.Sprintf("[object %s]", o.class.name)
}
