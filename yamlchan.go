package warp

import (
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// NewYAMLChan returns a channel using the YAML encoding. Each written
// object is one YAML document; consecutive objects form a multi document
// stream. Scalar values embed the same canonical literals as the native
// grammar.
func NewYAMLChan(rw io.ReadWriter, opts ...ChannelOption) *Channel {
	return newChannel(rw, &yamlCodec{dec: yaml.NewDecoder(rw)}, opts)
}

type yamlCodec struct {
	dec *yaml.Decoder
}

type yamlObject struct {
	Class  string      `yaml:"class"`
	Fields []yamlField `yaml:"fields,omitempty"`
}

type yamlField struct {
	Name   string      `yaml:"name"`
	Type   string      `yaml:"type"`
	Value  string      `yaml:"value,omitempty"`
	Object *yamlObject `yaml:"object,omitempty"`
}

func (*yamlCodec) name() string { return "yaml" }

func (*yamlCodec) encode(w io.Writer, n *dumpNode) error {
	data, err := yaml.Marshal(toYAMLObject(n))
	if err != nil {
		return &SerializationError{Format: "yaml", Reason: err.Error()}
	}
	// A document separator keeps consecutive objects parseable as one
	// multi document stream.
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return &SerializationError{Format: "yaml", Reason: "write failed: " + err.Error()}
	}
	if _, err := w.Write(data); err != nil {
		return &SerializationError{Format: "yaml", Reason: "write failed: " + err.Error()}
	}
	return nil
}

func (c *yamlCodec) decode() (*dumpNode, error) {
	var y yamlObject
	if err := c.dec.Decode(&y); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SerializationError{Format: "yaml", Reason: "empty stream"}
		}
		return nil, &SerializationError{Format: "yaml", Reason: err.Error()}
	}
	return fromYAMLObject(&y)
}

func toYAMLObject(n *dumpNode) *yamlObject {
	y := &yamlObject{Class: n.class}
	for i := range n.fields {
		f := &n.fields[i]
		yf := yamlField{Name: f.name, Type: fieldKindNames[f.kind]}
		if f.kind == fieldObject {
			yf.Object = toYAMLObject(f.obj)
		} else {
			yf.Value = formatFieldValue(f)
		}
		y.Fields = append(y.Fields, yf)
	}
	return y
}

func fromYAMLObject(y *yamlObject) (*dumpNode, error) {
	if y.Class == "" {
		return nil, &SerializationError{Format: "yaml", Reason: "document without a class key"}
	}
	n := &dumpNode{class: y.Class}
	for _, yf := range y.Fields {
		kind, ok := fieldKindsByName[yf.Type]
		if !ok {
			return nil, &SerializationError{Format: "yaml", Reason: "unknown field type " + yf.Type}
		}
		if kind == fieldObject {
			if yf.Object == nil {
				return nil, &SerializationError{Format: "yaml", Reason: "object field " + yf.Name + " without a nested object"}
			}
			child, err := fromYAMLObject(yf.Object)
			if err != nil {
				return nil, err
			}
			n.addObject(yf.Name, child)
			continue
		}
		f, err := parseFieldValue(yf.Name, yf.Value)
		if err != nil {
			return nil, err
		}
		n.fields = append(n.fields, f)
	}
	return n, nil
}
