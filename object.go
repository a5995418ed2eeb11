package warp

import (
	"fmt"
	"sync/atomic"
)

// liveObjects counts Objects currently in existence across the process.
// It starts at zero, is maintained atomically, and exists purely for
// diagnostics and tests; nothing in the engine branches on it.
var liveObjects atomic.Int64

// NObject returns the number of live Objects in the process.
func NObject() int {
	return int(liveObjects.Load())
}

// Object is the reference counted, attribute bearing surface shared by every
// entity in the package. The set of implementations is closed: concrete
// kinds live in this package and embed the common object state.
//
// Identity (Same) is handle equality and is distinct from value equality,
// which is equality of the Show dumps.
type Object interface {
	// ClassName returns the immutable type tag, e.g. "ZoomMap".
	ClassName() string
	// Show returns a structured, reproducible dump of the object. Two value
	// equal objects produce identical dumps, and the dump survives a
	// persistence round trip byte for byte.
	Show() string
	String() string
	// Same reports whether other is the very same object, not merely an
	// equal one.
	Same(other Object) bool
	// Copy returns a fresh object with the same value: attributes are
	// duplicated except ID, which resets to empty. The copy has a reference
	// count of one and its own identity.
	Copy() Object
	// RefCount returns the current number of counted owners.
	RefCount() int
	// NObject returns the process wide live object count.
	NObject() int
	// Release drops one counted reference. When the count reaches zero the
	// object releases its children and leaves the live object count.
	Release()

	HasAttribute(name string) bool
	Test(name string) (bool, error)
	Clear(name string) error
	GetString(name string) (string, error)
	SetString(name, value string) error
	GetBool(name string) (bool, error)
	SetBool(name string, value bool) error
	GetInt(name string) (int, error)
	SetInt(name string, value int) error
	GetFloat(name string) (float64, error)
	SetFloat(name string, value float64) error

	// ID and Ident are the generic identification attributes. ID is not
	// carried over by Copy; Ident is.
	ID() string
	SetID(id string)
	Ident() string
	SetIdent(ident string)

	obj() *object
}

type attrKind int

const (
	attrString attrKind = iota
	attrBool
	attrInt
	attrFloat
)

func (k attrKind) String() string {
	switch k {
	case attrString:
		return "string"
	case attrBool:
		return "bool"
	case attrInt:
		return "int"
	case attrFloat:
		return "float"
	default:
		return "unknown"
	}
}

type attrValue struct {
	kind attrKind
	s    string
	b    bool
	i    int
	f    float64
}

// attrDefaults enumerates the generic attributes every Object carries,
// together with their default values. Clear reverts an attribute to the
// value recorded here.
var attrDefaults = map[string]attrValue{
	"ID":      {kind: attrString},
	"Ident":   {kind: attrString},
	"UseDefs": {kind: attrBool, b: true},
}

// object holds the state common to all Object implementations and is
// embedded by every concrete kind.
type object struct {
	class string
	impl  dumpEncoder
	attrs map[string]attrValue
	refs  atomic.Int64
	// drop releases counted children when the refcount reaches zero.
	drop func()
}

// initObject registers a freshly constructed object: reference count one,
// live object count incremented. impl is the concrete kind, used to render
// dumps.
func (o *object) initObject(class string, impl dumpEncoder) {
	o.class = class
	o.impl = impl
	o.attrs = make(map[string]attrValue)
	o.refs.Store(1)
	liveObjects.Add(1)
}

func (o *object) obj() *object { return o }

func (o *object) ClassName() string { return o.class }

func (o *object) Show() string { return renderDump(o.impl.encode()) }

func (o *object) String() string { return o.Show() }

func (o *object) Same(other Object) bool {
	return other != nil && o == other.obj()
}

func (o *object) RefCount() int { return int(o.refs.Load()) }

func (o *object) NObject() int { return NObject() }

// retain adds one counted reference. Composition and handle returning
// operations call it; it is not part of the public surface.
func (o *object) retain() { o.refs.Add(1) }

func (o *object) Release() {
	switch n := o.refs.Add(-1); {
	case n == 0:
		liveObjects.Add(-1)
		if o.drop != nil {
			o.drop()
		}
	case n < 0:
		panic(fmt.Sprintf("warp: release of already freed %s", o.class))
	}
}

func (o *object) HasAttribute(name string) bool {
	_, ok := attrDefaults[name]
	return ok
}

// Test reports whether name has been explicitly set, as opposed to holding
// its default value.
func (o *object) Test(name string) (bool, error) {
	if _, ok := attrDefaults[name]; !ok {
		return false, &AttributeError{Class: o.class, Attr: name, Reason: "no such attribute"}
	}
	_, set := o.attrs[name]
	return set, nil
}

// Clear reverts name to its default value.
func (o *object) Clear(name string) error {
	if _, ok := attrDefaults[name]; !ok {
		return &AttributeError{Class: o.class, Attr: name, Reason: "no such attribute"}
	}
	delete(o.attrs, name)
	return nil
}

// lookup returns the current value of name, falling back to the default
// when the attribute has not been set.
func (o *object) lookup(name string, want attrKind) (attrValue, error) {
	def, ok := attrDefaults[name]
	if !ok {
		return attrValue{}, &AttributeError{Class: o.class, Attr: name, Reason: "no such attribute"}
	}
	if def.kind != want {
		return attrValue{}, &AttributeError{
			Class: o.class, Attr: name,
			Reason: fmt.Sprintf("is of type %s, not %s", def.kind, want),
		}
	}
	if v, set := o.attrs[name]; set {
		return v, nil
	}
	return def, nil
}

func (o *object) store(name string, v attrValue) error {
	def, ok := attrDefaults[name]
	if !ok {
		return &AttributeError{Class: o.class, Attr: name, Reason: "no such attribute"}
	}
	if def.kind != v.kind {
		return &AttributeError{
			Class: o.class, Attr: name,
			Reason: fmt.Sprintf("is of type %s, not %s", def.kind, v.kind),
		}
	}
	o.attrs[name] = v
	return nil
}

func (o *object) GetString(name string) (string, error) {
	v, err := o.lookup(name, attrString)
	return v.s, err
}

func (o *object) SetString(name, value string) error {
	return o.store(name, attrValue{kind: attrString, s: value})
}

func (o *object) GetBool(name string) (bool, error) {
	v, err := o.lookup(name, attrBool)
	return v.b, err
}

func (o *object) SetBool(name string, value bool) error {
	return o.store(name, attrValue{kind: attrBool, b: value})
}

func (o *object) GetInt(name string) (int, error) {
	v, err := o.lookup(name, attrInt)
	return v.i, err
}

func (o *object) SetInt(name string, value int) error {
	return o.store(name, attrValue{kind: attrInt, i: value})
}

func (o *object) GetFloat(name string) (float64, error) {
	v, err := o.lookup(name, attrFloat)
	return v.f, err
}

func (o *object) SetFloat(name string, value float64) error {
	return o.store(name, attrValue{kind: attrFloat, f: value})
}

func (o *object) ID() string {
	id, _ := o.GetString("ID")
	return id
}

func (o *object) SetID(id string) { _ = o.SetString("ID", id) }

func (o *object) Ident() string {
	ident, _ := o.GetString("Ident")
	return ident
}

func (o *object) SetIdent(ident string) { _ = o.SetString("Ident", ident) }

// copyAttrsInto duplicates the explicitly set attributes into dst, dropping
// ID: a copy is a new object and must not inherit the old one's ID.
func (o *object) copyAttrsInto(dst *object) {
	for name, v := range o.attrs {
		if name == "ID" {
			continue
		}
		dst.attrs[name] = v
	}
}

// attrNames is the deterministic dump order of the generic attributes.
var attrNames = []string{"ID", "Ident", "UseDefs"}

// encodeAttrs appends the explicitly set attributes to n, in a fixed order
// so that value equal objects dump identically.
func (o *object) encodeAttrs(n *dumpNode) {
	for _, name := range attrNames {
		v, set := o.attrs[name]
		if !set {
			continue
		}
		switch v.kind {
		case attrString:
			n.addString(name, v.s)
		case attrBool:
			n.addBool(name, v.b)
		case attrInt:
			n.addInt(name, v.i)
		case attrFloat:
			n.addFloat(name, v.f)
		}
	}
}

// applyDumpAttrs restores the generic attributes recorded in a dump.
func applyDumpAttrs(o *object, n *dumpNode) error {
	for _, name := range attrNames {
		f := n.field(name)
		if f == nil {
			continue
		}
		def := attrDefaults[name]
		switch def.kind {
		case attrString:
			s, ok := f.asString()
			if !ok {
				return &SerializationError{Format: "dump", Reason: fmt.Sprintf("attribute %s: expected a string", name)}
			}
			if err := o.SetString(name, s); err != nil {
				return err
			}
		case attrBool:
			b, ok := f.asBool()
			if !ok {
				return &SerializationError{Format: "dump", Reason: fmt.Sprintf("attribute %s: expected a bool", name)}
			}
			if err := o.SetBool(name, b); err != nil {
				return err
			}
		}
	}
	return nil
}
