package warp

import (
	"encoding/xml"
	"errors"
	"io"
)

// NewXMLChan returns a channel using the XML encoding. Scalar values embed
// the same canonical literals as the native grammar, so the two encodings
// are interchangeable field for field.
func NewXMLChan(rw io.ReadWriter, opts ...ChannelOption) *Channel {
	return newChannel(rw, &xmlCodec{dec: xml.NewDecoder(rw)}, opts)
}

type xmlCodec struct {
	dec *xml.Decoder
}

type xmlObject struct {
	XMLName xml.Name   `xml:"object"`
	Class   string     `xml:"class,attr"`
	Fields  []xmlField `xml:"field"`
}

type xmlField struct {
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Value  string     `xml:",chardata"`
	Object *xmlObject `xml:"object"`
}

func (*xmlCodec) name() string { return "xml" }

func (*xmlCodec) encode(w io.Writer, n *dumpNode) error {
	data, err := xml.MarshalIndent(toXMLObject(n), "", "  ")
	if err != nil {
		return &SerializationError{Format: "xml", Reason: err.Error()}
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return &SerializationError{Format: "xml", Reason: "write failed: " + err.Error()}
	}
	return nil
}

func (c *xmlCodec) decode() (*dumpNode, error) {
	var x xmlObject
	if err := c.dec.Decode(&x); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SerializationError{Format: "xml", Reason: "empty stream"}
		}
		return nil, &SerializationError{Format: "xml", Reason: err.Error()}
	}
	return fromXMLObject(&x)
}

func toXMLObject(n *dumpNode) *xmlObject {
	x := &xmlObject{Class: n.class}
	for i := range n.fields {
		f := &n.fields[i]
		xf := xmlField{Name: f.name, Type: fieldKindNames[f.kind]}
		if f.kind == fieldObject {
			xf.Object = toXMLObject(f.obj)
		} else {
			xf.Value = formatFieldValue(f)
		}
		x.Fields = append(x.Fields, xf)
	}
	return x
}

func fromXMLObject(x *xmlObject) (*dumpNode, error) {
	if x.Class == "" {
		return nil, &SerializationError{Format: "xml", Reason: "object element without a class attribute"}
	}
	n := &dumpNode{class: x.Class}
	for _, xf := range x.Fields {
		kind, ok := fieldKindsByName[xf.Type]
		if !ok {
			return nil, &SerializationError{Format: "xml", Reason: "unknown field type " + xf.Type}
		}
		if kind == fieldObject {
			if xf.Object == nil {
				return nil, &SerializationError{Format: "xml", Reason: "object field " + xf.Name + " without a nested object"}
			}
			child, err := fromXMLObject(xf.Object)
			if err != nil {
				return nil, err
			}
			n.addObject(xf.Name, child)
			continue
		}
		f, err := parseFieldValue(xf.Name, trimXMLValue(xf.Value))
		if err != nil {
			return nil, err
		}
		n.fields = append(n.fields, f)
	}
	return n, nil
}

// trimXMLValue strips the indentation whitespace MarshalIndent leaves
// around character data.
func trimXMLValue(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\n' || s[start] == '\t' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\n' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}
