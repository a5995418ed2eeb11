package warp

// ShiftMap adds a fixed offset to every coordinate: the forward transform
// is y_i = x_i + shift_i and the inverse subtracts the same offsets.
type ShiftMap struct {
	mapping
	shift []float64
}

// NewShiftMap returns a mapping that shifts len(shift) axes by the given
// offsets.
func NewShiftMap(shift []float64, opts ...string) (*ShiftMap, error) {
	m := &ShiftMap{shift: append([]float64(nil), shift...)}
	if err := m.initMapping(m, "ShiftMap", len(shift), len(shift), true, true); err != nil {
		return nil, err
	}
	if err := applyOptions(&m.object, opts); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (m *ShiftMap) Copy() Object {
	cp, _ := NewShiftMap(m.shift)
	m.copyAttrsInto(&cp.object)
	return cp
}

func (m *ShiftMap) forwardRaw(in, out [][]float64, _ int) error {
	for i, row := range in {
		s := m.shift[i]
		for k, v := range row {
			out[i][k] = v + s
		}
	}
	return nil
}

func (m *ShiftMap) inverseRaw(in, out [][]float64, _ int) error {
	for i, row := range in {
		s := m.shift[i]
		for k, v := range row {
			out[i][k] = v - s
		}
	}
	return nil
}

func (m *ShiftMap) encode() *dumpNode {
	n := &dumpNode{class: "ShiftMap"}
	m.encodeAttrs(n)
	n.addFloats("Shift", m.shift)
	return n
}
