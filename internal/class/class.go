// Package class implements a small class system on top of plain member
// tables: single inheritance, mixins, accessor properties, abstract members,
// static members with init and extended hooks, and super calls.
//
// A class is defined by extending another one:
//
//	Animal, err := class.Extend(class.Definition{
//		Name: "Animal",
//		Instance: class.Members{
//			"init": class.Func(func(self class.Receiver, _ class.Super, args ...any) any {
//				return self.Set("name", args[0])
//			}),
//			"speak":    class.Abstract,
//			"get name": class.Func(...),
//		},
//	})
//
// Instance members resolve in order: the class's own, then the parent chain,
// then the class's mixins. Inherited members and super calls are looked up
// in the parent at call time, so replacing a parent method with SetMethod is
// seen by every subclass. Mixins are copied when Extend runs, and static
// members are copied into the subclass too.
package class

import (
	"fmt"
	"slices"
	"sync"

	"github.com/capsela/capsela-util/internal/errors"
)

// Definition describes a class to be created by Extend.
type Definition struct {
	// Name is used in error messages and String. It defaults to "anonymous".
	Name string

	// Mixins contribute instance members below the parent's. Two mixins
	// providing the same member name is an error.
	Mixins []Source

	// Static members live on the class itself. A static "init" runs once the
	// class is built. A static "extended" runs on the parent each time it is
	// subclassed, receiving the new class.
	Static Members

	// Instance members are shared by all objects of the class. An instance
	// "init" runs on New.
	Instance Members
}

// Class is a resolved class. Classes are safe for concurrent use; locks are
// never held while user methods run.
type Class struct {
	name   string
	parent *Class

	mu       sync.RWMutex
	instance map[string]*slot
	mixed    map[string]*slot
	own      map[string]bool
	static   map[string]*slot
	values   map[string]any
	locked   bool
}

// Base is the root of every class hierarchy.
var Base = newClass("Class", nil)

func newClass(name string, parent *Class) *Class {
	return &Class{
		name:     name,
		parent:   parent,
		instance: make(map[string]*slot),
		mixed:    make(map[string]*slot),
		own:      make(map[string]bool),
		static:   make(map[string]*slot),
		values:   make(map[string]any),
	}
}

// Extend creates a subclass of Base.
func Extend(def Definition) (*Class, error) {
	return Base.Extend(def)
}

// Extend creates a subclass of c from def.
func (c *Class) Extend(def Definition) (*Class, error) {
	name := def.Name
	if name == "" {
		name = "anonymous"
	}

	if err := checkAccessors(def.Instance); err != nil {
		return nil, err
	}
	if err := checkAccessors(def.Static); err != nil {
		return nil, err
	}

	mixed, err := mixinSlots(def.Mixins)
	if err != nil {
		return nil, err
	}

	nc := newClass(name, c)

	nc.mixed = mixed
	for k, m := range def.Instance {
		previous := c.instanceSlot(k)
		if previous == nil {
			previous = mixed[k]
		}
		nc.instance[k] = override(k, m, previous, mixed[k], c.instanceSlot)
		nc.own[k] = true
	}

	for k, s := range c.staticSlots() {
		nc.static[k] = s
	}
	for k, v := range c.staticValues() {
		nc.values[k] = v
	}
	for k, m := range def.Static {
		if m.kind == kindField {
			delete(nc.static, k)
			nc.values[k] = m.value
			continue
		}
		delete(nc.values, k)
		nc.static[k] = override(k, m, nc.static[k], nil, c.staticSlot)
	}

	nc.locked = true

	if s := nc.staticSlot("init"); s != nil && s.member.kind == kindFunc {
		s.call(nc, nil)
	}
	if s := c.staticSlot("extended"); s != nil && s.member.kind == kindFunc {
		s.call(c, []any{nc})
	}

	return nc, nil
}

// override builds the slot for an own member. When it replaces a method, the
// slot's super resolves to the parent's current implementation, or to the
// mixin's when the parent has none.
func override(key string, m Member, previous, mixin *slot, parent func(string) *slot) *slot {
	s := &slot{member: m}
	if m.kind != kindFunc || previous == nil || previous.member.kind != kindFunc {
		return s
	}
	s.prev = func() *slot {
		if p := parent(key); p != nil && p.member.kind == kindFunc {
			return p
		}
		return mixin
	}
	return s
}

func checkAccessors(members Members) error {
	for k, m := range members {
		if _, _, ok := splitAccessor(k); ok && m.kind != kindFunc {
			return errors.NewMisuseError("class", "extend", errors.ErrNotCallable).
				WithDetail(fmt.Sprintf("accessor %q must be a method", k))
		}
	}
	return nil
}

// mixinSlots merges the instance members of every mixin. A class mixin
// contributes its whole resolved table, inherited members included. Two
// mixins sharing an ancestor provide the same slot, which is not a conflict.
func mixinSlots(sources []Source) (map[string]*slot, error) {
	out := make(map[string]*slot)
	seen := make(map[*Class]bool)

	for _, src := range sources {
		if src == nil {
			continue
		}

		var slots map[string]*slot
		if cls, ok := src.(*Class); ok {
			if seen[cls] {
				continue
			}
			seen[cls] = true
			slots = cls.instanceSlots()
		} else {
			members := src.InstanceMembers()
			slots = make(map[string]*slot, len(members))
			for k, m := range members {
				slots[k] = &slot{member: m}
			}
		}

		keys := make([]string, 0, len(slots))
		for k := range slots {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			if prev, dup := out[k]; dup && prev != slots[k] {
				return nil, errors.NewMisuseError("class", "extend", errors.ErrMixinConflict).
					WithDetail(fmt.Sprintf("member %q is provided by more than one mixin", k))
			}
			out[k] = slots[k]
		}
	}
	return out, nil
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// String implements fmt.Stringer.
func (c *Class) String() string { return "class " + c.name }

// Super returns the parent class, or nil for Base.
func (c *Class) Super() *Class { return c.parent }

// IsSubclassOf reports whether c is other or descends from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// IsAbstract reports whether any resolved instance member is still abstract.
func (c *Class) IsAbstract() bool {
	for _, s := range c.instanceSlots() {
		if s.member.kind == kindAbstract {
			return true
		}
	}
	return false
}

// InstanceMembers returns the members c defines itself, so a class can be
// used as a mixin source.
func (c *Class) InstanceMembers() Members {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(Members, len(c.own))
	for k := range c.own {
		out[k] = c.instance[k].member
	}
	return out
}

// Lookup returns the resolved instance member called name.
func (c *Class) Lookup(name string) (Member, bool) {
	s := c.instanceSlot(name)
	if s == nil {
		return Member{}, false
	}
	return s.member, true
}

// New constructs an object and runs the instance init method, if any, with
// args. Abstract classes cannot be constructed.
func (c *Class) New(args ...any) (*Object, error) {
	if c.IsAbstract() {
		return nil, errors.NewMisuseError("class", "new", errors.ErrAbstractClass).WithDetail(c.name)
	}
	obj := c.Instantiate()
	if s := c.instanceSlot("init"); s != nil && s.member.kind == kindFunc {
		s.call(obj, args)
	}
	return obj, nil
}

// Instantiate constructs an object without running init.
func (c *Class) Instantiate() *Object {
	return &Object{class: c, fields: make(map[string]any)}
}

// SetMethod replaces the instance method called name, typically to mock it in
// tests. Inside fn, super calls the implementation being replaced. Accessor
// properties cannot be redefined once the class is built.
func (c *Class) SetMethod(name string, fn Method) error {
	return c.replace(c.instance, c.instanceSlot, "set method", name, fn)
}

// DefineAccessor adds an accessor property to the instance table. Either half
// may be nil. Built classes are locked, so this only succeeds on Base.
func (c *Class) DefineAccessor(prop string, get, set Method) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked {
		return errors.NewMisuseError("class", "define accessor", errors.ErrAccessorLocked).WithDetail(prop)
	}
	if get != nil {
		c.instance["get "+prop] = &slot{member: Func(get)}
		c.own["get "+prop] = true
	}
	if set != nil {
		c.instance["set "+prop] = &slot{member: Func(set)}
		c.own["set "+prop] = true
	}
	return nil
}

// SetStaticMethod replaces the static method called name. Subclasses built
// before the call keep the static members they copied.
func (c *Class) SetStaticMethod(name string, fn Method) error {
	return c.replace(c.static, c.staticSlot, "set static method", name, fn)
}

func (c *Class) replace(table map[string]*slot, lookup func(string) *slot, op, name string, fn Method) error {
	prop := name
	if _, p, ok := splitAccessor(name); ok {
		prop = p
	}
	hasAccessor := lookup("get "+prop) != nil || lookup("set "+prop) != nil
	old := lookup(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked && (hasAccessor || prop != name) {
		return errors.NewMisuseError("class", op, errors.ErrAccessorLocked).WithDetail(prop)
	}

	s := &slot{member: Func(fn)}
	if old != nil {
		s.prev = func() *slot { return old }
	}
	table[name] = s
	return nil
}

// Get reads a static property: an accessor getter, a static value or a static
// method.
func (c *Class) Get(name string) any {
	if s := c.staticSlot("get " + name); s != nil {
		return s.call(c, nil)
	}
	c.mu.RLock()
	v, ok := c.values[name]
	s := c.static[name]
	c.mu.RUnlock()
	if ok {
		return v
	}
	if s != nil && s.member.kind == kindFunc {
		return s.member.fn
	}
	return nil
}

// Set writes a static property, going through an accessor setter when one
// exists.
func (c *Class) Set(name string, value any) error {
	if s := c.staticSlot("set " + name); s != nil {
		s.call(c, []any{value})
		return nil
	}
	if c.staticSlot("get "+name) != nil {
		return errors.NewMisuseError("class", "set", errors.ErrAccessorLocked).
			WithDetail(fmt.Sprintf("%s.%s is read-only", c.name, name))
	}
	c.mu.Lock()
	c.values[name] = value
	c.mu.Unlock()
	return nil
}

// Call invokes a static method.
func (c *Class) Call(name string, args ...any) (any, error) {
	c.mu.RLock()
	s := c.static[name]
	v, isValue := c.values[name]
	c.mu.RUnlock()

	if s == nil && isValue {
		if fn, ok := asMethod(v); ok {
			return fn(c, nil, args...), nil
		}
		return nil, errors.NewMisuseError("class", "call", errors.ErrNotCallable).
			WithDetail(fmt.Sprintf("%s.%s", c.name, name))
	}
	return invoke(c, c.name, s, name, args)
}

func invoke(self Receiver, owner string, s *slot, name string, args []any) (any, error) {
	if s == nil {
		return nil, errors.NewMisuseError("class", "call", errors.ErrNoSuchMember).
			WithDetail(fmt.Sprintf("%s.%s", owner, name))
	}
	switch s.member.kind {
	case kindAbstract:
		return nil, errors.NewMisuseError("class", "call", errors.ErrAbstractMethod).
			WithDetail(fmt.Sprintf("%s.%s", owner, name))
	case kindField:
		return nil, errors.NewMisuseError("class", "call", errors.ErrNotCallable).
			WithDetail(fmt.Sprintf("%s.%s", owner, name))
	}
	return s.call(self, args), nil
}

func (c *Class) instanceSlot(name string) *slot {
	c.mu.RLock()
	s, mixed := c.instance[name], c.mixed[name]
	c.mu.RUnlock()
	if s != nil {
		return s
	}
	if c.parent != nil {
		if p := c.parent.instanceSlot(name); p != nil {
			return p
		}
	}
	return mixed
}

func (c *Class) staticSlot(name string) *slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.static[name]
}

// instanceSlots returns the resolved instance table.
func (c *Class) instanceSlots() map[string]*slot {
	var inherited map[string]*slot
	if c.parent != nil {
		inherited = c.parent.instanceSlots()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*slot, len(c.mixed)+len(inherited)+len(c.instance))
	for k, s := range c.mixed {
		out[k] = s
	}
	for k, s := range inherited {
		out[k] = s
	}
	for k, s := range c.instance {
		out[k] = s
	}
	return out
}

func (c *Class) staticSlots() map[string]*slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*slot, len(c.static))
	for k, s := range c.static {
		out[k] = s
	}
	return out
}

func (c *Class) staticValues() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
