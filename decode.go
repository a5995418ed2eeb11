package warp

import "fmt"

// buildObject reconstructs an Object graph from its dump tree. The class
// registry is closed: a dump naming a class this package does not know is a
// SerializationError.
func buildObject(n *dumpNode) (Object, error) {
	build, ok := classBuilders[n.class]
	if !ok {
		return nil, &SerializationError{Format: "dump", Reason: fmt.Sprintf("unrecognized class %q", n.class)}
	}
	obj, err := build(n)
	if err != nil {
		return nil, err
	}
	if err := applyDumpAttrs(obj.obj(), n); err != nil {
		obj.Release()
		return nil, err
	}
	return obj, nil
}

var classBuilders map[string]func(*dumpNode) (Object, error)

// The compound builders decode their children through buildObject, which
// consults the registry in turn, so the map must be filled here rather than
// in its own initializer.
func init() {
	classBuilders = map[string]func(*dumpNode) (Object, error){
		"UnitMap":    buildUnitMap,
		"ShiftMap":   buildShiftMap,
		"ZoomMap":    buildZoomMap,
		"PolyMap":    buildPolyMap,
		"CmpMap":     buildCmpMap,
		"InverseMap": buildInverseMap,
	}
}

func missingField(class, name string) error {
	return &SerializationError{Format: "dump", Reason: fmt.Sprintf("%s: missing or malformed field %s", class, name)}
}

func buildUnitMap(n *dumpNode) (Object, error) {
	f := n.field("Nin")
	if f == nil {
		return nil, missingField("UnitMap", "Nin")
	}
	nin, ok := f.asInt()
	if !ok {
		return nil, missingField("UnitMap", "Nin")
	}
	u, err := NewUnitMap(nin)
	if err != nil {
		return nil, &SerializationError{Format: "dump", Reason: err.Error()}
	}
	return u, nil
}

func buildShiftMap(n *dumpNode) (Object, error) {
	f := n.field("Shift")
	if f == nil {
		return nil, missingField("ShiftMap", "Shift")
	}
	shift, ok := f.asFloats()
	if !ok {
		return nil, missingField("ShiftMap", "Shift")
	}
	m, err := NewShiftMap(shift)
	if err != nil {
		return nil, &SerializationError{Format: "dump", Reason: err.Error()}
	}
	return m, nil
}

func buildZoomMap(n *dumpNode) (Object, error) {
	fn := n.field("Nin")
	fz := n.field("Zoom")
	if fn == nil || fz == nil {
		return nil, missingField("ZoomMap", "Nin/Zoom")
	}
	nin, ok := fn.asInt()
	if !ok {
		return nil, missingField("ZoomMap", "Nin")
	}
	zoom, ok := fz.asFloat()
	if !ok {
		return nil, missingField("ZoomMap", "Zoom")
	}
	m, err := NewZoomMap(nin, zoom)
	if err != nil {
		return nil, &SerializationError{Format: "dump", Reason: err.Error()}
	}
	return m, nil
}

func buildPolyMap(n *dumpNode) (Object, error) {
	fi := n.field("Nin")
	fo := n.field("Nout")
	if fi == nil || fo == nil {
		return nil, missingField("PolyMap", "Nin/Nout")
	}
	nin, ok := fi.asInt()
	if !ok {
		return nil, missingField("PolyMap", "Nin")
	}
	nout, ok := fo.asInt()
	if !ok {
		return nil, missingField("PolyMap", "Nout")
	}
	var opts []string
	if f := n.field("IterInverse"); f != nil {
		iter, ok := f.asBool()
		if !ok {
			return nil, missingField("PolyMap", "IterInverse")
		}
		if iter {
			opts = append(opts, "IterInverse=1")
		}
	}
	m, err := NewPolyMap(nin, nout, n.terms("Forward"), n.terms("Reverse"), opts...)
	if err != nil {
		return nil, &SerializationError{Format: "dump", Reason: err.Error()}
	}
	return m, nil
}

// buildChild decodes a nested object field that must contain a Mapping.
func buildChild(class string, n *dumpNode, name string) (Mapping, error) {
	f := n.field(name)
	if f == nil || f.kind != fieldObject {
		return nil, missingField(class, name)
	}
	obj, err := buildObject(f.obj)
	if err != nil {
		return nil, err
	}
	m, ok := obj.(Mapping)
	if !ok {
		obj.Release()
		return nil, &SerializationError{Format: "dump", Reason: fmt.Sprintf("%s: field %s is not a mapping", class, name)}
	}
	return m, nil
}

func buildCmpMap(n *dumpNode) (Object, error) {
	fs := n.field("Series")
	if fs == nil {
		return nil, missingField("CmpMap", "Series")
	}
	series, ok := fs.asBool()
	if !ok {
		return nil, missingField("CmpMap", "Series")
	}
	map1, err := buildChild("CmpMap", n, "Map1")
	if err != nil {
		return nil, err
	}
	map2, err := buildChild("CmpMap", n, "Map2")
	if err != nil {
		map1.Release()
		return nil, err
	}
	c, err := NewCmpMap(map1, map2, series)
	// The compound holds its own counted references now; drop the handles
	// the builders returned.
	map1.Release()
	map2.Release()
	if err != nil {
		return nil, &SerializationError{Format: "dump", Reason: err.Error()}
	}
	return c, nil
}

func buildInverseMap(n *dumpNode) (Object, error) {
	base, err := buildChild("InverseMap", n, "Map")
	if err != nil {
		return nil, err
	}
	iv := newInvMap(base)
	base.Release()
	return iv, nil
}
