package warp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The dump tree is the encoding neutral form of an Object: an ordered list
// of named fields under a class tag. Show, the native channel grammar and
// the XML and YAML encodings all render the same tree, which is what makes
// the encodings interchangeable and the round trip contract structural.

// dumpEncoder is implemented by every concrete kind.
type dumpEncoder interface {
	encode() *dumpNode
}

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldBool
	fieldInt
	fieldFloat
	fieldFloats
	fieldInts
	fieldTerm
	fieldObject
)

var fieldKindNames = map[fieldKind]string{
	fieldString: "string",
	fieldBool:   "bool",
	fieldInt:    "int",
	fieldFloat:  "float",
	fieldFloats: "floats",
	fieldInts:   "ints",
	fieldTerm:   "term",
	fieldObject: "object",
}

var fieldKindsByName = func() map[string]fieldKind {
	m := make(map[string]fieldKind, len(fieldKindNames))
	for k, name := range fieldKindNames {
		m[name] = k
	}
	return m
}()

type dumpNode struct {
	class  string
	fields []dumpField
}

type dumpField struct {
	name string
	kind fieldKind
	s    string
	b    bool
	i    int
	f    float64
	fs   []float64
	is   []int
	term PolyTerm
	obj  *dumpNode
}

func (n *dumpNode) addString(name, v string) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldString, s: v})
}

func (n *dumpNode) addBool(name string, v bool) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldBool, b: v})
}

func (n *dumpNode) addInt(name string, v int) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldInt, i: v})
}

func (n *dumpNode) addFloat(name string, v float64) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldFloat, f: v})
}

func (n *dumpNode) addFloats(name string, v []float64) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldFloats, fs: v})
}

func (n *dumpNode) addInts(name string, v []int) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldInts, is: v})
}

func (n *dumpNode) addTerm(name string, t PolyTerm) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldTerm, term: t})
}

func (n *dumpNode) addObject(name string, child *dumpNode) {
	n.fields = append(n.fields, dumpField{name: name, kind: fieldObject, obj: child})
}

// field returns the first field with the given name, or nil.
func (n *dumpNode) field(name string) *dumpField {
	for i := range n.fields {
		if n.fields[i].name == name {
			return &n.fields[i]
		}
	}
	return nil
}

// terms collects every term field with the given name, in dump order.
func (n *dumpNode) terms(name string) []PolyTerm {
	var out []PolyTerm
	for i := range n.fields {
		if n.fields[i].name == name && n.fields[i].kind == fieldTerm {
			out = append(out, n.fields[i].term)
		}
	}
	return out
}

// The as* accessors are deliberately lenient about int and float: the native
// grammar prints 2.0 as "2", so a reader cannot tell the two apart and the
// class builders coerce losslessly instead.

func (f *dumpField) asString() (string, bool) {
	if f.kind != fieldString {
		return "", false
	}
	return f.s, true
}

func (f *dumpField) asBool() (bool, bool) {
	if f.kind != fieldBool {
		return false, false
	}
	return f.b, true
}

func (f *dumpField) asInt() (int, bool) {
	switch f.kind {
	case fieldInt:
		return f.i, true
	case fieldFloat:
		if n := int(f.f); float64(n) == f.f {
			return n, true
		}
	}
	return 0, false
}

func (f *dumpField) asFloat() (float64, bool) {
	switch f.kind {
	case fieldFloat:
		return f.f, true
	case fieldInt:
		return float64(f.i), true
	}
	return 0, false
}

func (f *dumpField) asFloats() ([]float64, bool) {
	switch f.kind {
	case fieldFloats:
		return f.fs, true
	case fieldInts:
		out := make([]float64, len(f.is))
		for i, n := range f.is {
			out[i] = float64(n)
		}
		return out, true
	}
	return nil, false
}

func (f *dumpField) asInts() ([]int, bool) {
	switch f.kind {
	case fieldInts:
		return f.is, true
	case fieldFloats:
		out := make([]int, len(f.fs))
		for i, v := range f.fs {
			n := int(v)
			if float64(n) != v {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

// renderDump produces the native textual form of a dump tree. This is also
// exactly what Show returns and what the native channel writes.
func renderDump(n *dumpNode) string {
	var b strings.Builder
	writeDump(&b, n, 0)
	return b.String()
}

func writeDump(b *strings.Builder, n *dumpNode, depth int) {
	ind := strings.Repeat("   ", depth)
	b.WriteString(ind)
	b.WriteString("Begin ")
	b.WriteString(n.class)
	b.WriteByte('\n')
	for _, f := range n.fields {
		if f.kind == fieldObject {
			fmt.Fprintf(b, "%s   %s =\n", ind, f.name)
			writeDump(b, f.obj, depth+2)
			continue
		}
		fmt.Fprintf(b, "%s   %s = %s\n", ind, f.name, formatFieldValue(&f))
	}
	b.WriteString(ind)
	b.WriteString("End ")
	b.WriteString(n.class)
	b.WriteByte('\n')
}

// formatFloat prints the shortest decimal form that parses back to the same
// float64, so dumps round trip exactly.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatFieldValue renders a scalar field as its canonical literal. The XML
// and YAML encodings embed the same literals, so all three codecs share one
// scalar grammar.
func formatFieldValue(f *dumpField) string {
	switch f.kind {
	case fieldString:
		return strconv.Quote(f.s)
	case fieldBool:
		return strconv.FormatBool(f.b)
	case fieldInt:
		return strconv.Itoa(f.i)
	case fieldFloat:
		return formatFloat(f.f)
	case fieldFloats:
		parts := make([]string, len(f.fs))
		for i, v := range f.fs {
			parts[i] = formatFloat(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fieldInts:
		parts := make([]string, len(f.is))
		for i, v := range f.is {
			parts[i] = strconv.Itoa(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fieldTerm:
		parts := make([]string, len(f.term.Powers))
		for i, v := range f.term.Powers {
			parts[i] = strconv.Itoa(v)
		}
		return fmt.Sprintf("(%s, %d, [%s])", formatFloat(f.term.Coeff), f.term.Out, strings.Join(parts, ", "))
	default:
		return ""
	}
}

// parseFieldValue parses a canonical scalar literal. The field kind is
// inferred from the literal's shape; numeric lists come back as floats and
// the lenient accessors coerce where a builder expects ints.
func parseFieldValue(name, text string) (dumpField, error) {
	f := dumpField{name: name}
	malformed := func(reason string) (dumpField, error) {
		return dumpField{}, &SerializationError{Format: "dump", Reason: fmt.Sprintf("field %s: %s", name, reason)}
	}
	switch {
	case text == "":
		return malformed("empty value")
	case text[0] == '"':
		s, err := strconv.Unquote(text)
		if err != nil {
			return malformed("malformed string literal")
		}
		f.kind = fieldString
		f.s = s
	case text == "true" || text == "false":
		f.kind = fieldBool
		f.b = text == "true"
	case text[0] == '[':
		vs, err := parseFloatList(text)
		if err != nil {
			return malformed(err.Error())
		}
		f.kind = fieldFloats
		f.fs = vs
	case text[0] == '(':
		t, err := parseTermLiteral(text)
		if err != nil {
			return malformed(err.Error())
		}
		f.kind = fieldTerm
		f.term = t
	default:
		if n, err := strconv.Atoi(text); err == nil {
			f.kind = fieldInt
			f.i = n
			break
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return malformed("malformed numeric literal")
		}
		f.kind = fieldFloat
		f.f = v
	}
	return f, nil
}

func parseFloatList(text string) ([]float64, error) {
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return nil, errors.New("malformed list literal")
	}
	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		return nil, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.New("malformed list element")
		}
		out[i] = v
	}
	return out, nil
}

// parseTermLiteral parses "(coeff, out, [p0, p1, ...])".
func parseTermLiteral(text string) (PolyTerm, error) {
	var t PolyTerm
	if !strings.HasPrefix(text, "(") || !strings.HasSuffix(text, ")") {
		return t, errors.New("malformed term literal")
	}
	body := strings.TrimSpace(text[1 : len(text)-1])
	coeffPart, rest, found := strings.Cut(body, ",")
	if !found {
		return t, errors.New("malformed term literal")
	}
	outPart, powPart, found := strings.Cut(rest, ",")
	if !found {
		return t, errors.New("malformed term literal")
	}
	coeff, err := strconv.ParseFloat(strings.TrimSpace(coeffPart), 64)
	if err != nil {
		return t, errors.New("malformed term coefficient")
	}
	out, err := strconv.Atoi(strings.TrimSpace(outPart))
	if err != nil {
		return t, errors.New("malformed term output index")
	}
	vs, err := parseFloatList(strings.TrimSpace(powPart))
	if err != nil {
		return t, err
	}
	powers := make([]int, len(vs))
	for i, v := range vs {
		n := int(v)
		if float64(n) != v || n < 0 {
			return t, errors.New("malformed term power")
		}
		powers[i] = n
	}
	t.Coeff = coeff
	t.Out = out
	t.Powers = powers
	return t, nil
}

// dumpParser reads the native grammar back into a dump tree. Indentation is
// cosmetic; structure is carried entirely by the Begin/End lines.
type dumpParser struct {
	r *bufio.Reader
}

// parseDump reads one complete object from r. Reaching end of input before
// the object closes is a SerializationError, as is any malformed line.
func parseDump(r *bufio.Reader) (*dumpNode, error) {
	p := &dumpParser{r: r}
	header, err := p.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SerializationError{Format: "native", Reason: "empty stream"}
		}
		return nil, &SerializationError{Format: "native", Reason: err.Error()}
	}
	return p.parseNode(header)
}

// next returns the next non blank line with surrounding space removed.
func (p *dumpParser) next() (string, error) {
	for {
		line, err := p.r.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (p *dumpParser) parseNode(header string) (*dumpNode, error) {
	class, ok := strings.CutPrefix(header, "Begin ")
	if !ok || strings.TrimSpace(class) == "" {
		return nil, &SerializationError{Format: "native", Reason: fmt.Sprintf("expected Begin line, got %q", header)}
	}
	class = strings.TrimSpace(class)
	n := &dumpNode{class: class}
	for {
		line, err := p.next()
		if err != nil {
			return nil, &SerializationError{Format: "native", Reason: fmt.Sprintf("truncated stream inside %s", class)}
		}
		if line == "End "+class {
			return n, nil
		}
		name, rest, found := strings.Cut(line, "=")
		if !found {
			return nil, &SerializationError{Format: "native", Reason: fmt.Sprintf("malformed line %q", line)}
		}
		name = strings.TrimSpace(name)
		rest = strings.TrimSpace(rest)
		if rest == "" {
			header, err := p.next()
			if err != nil {
				return nil, &SerializationError{Format: "native", Reason: fmt.Sprintf("truncated stream inside %s", class)}
			}
			child, err := p.parseNode(header)
			if err != nil {
				return nil, err
			}
			n.addObject(name, child)
			continue
		}
		f, err := parseFieldValue(name, rest)
		if err != nil {
			return nil, err
		}
		n.fields = append(n.fields, f)
	}
}
