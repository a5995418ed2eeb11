package warp

// ZoomMap scales every coordinate by a fixed nonzero factor, uniformly
// across all axes.
type ZoomMap struct {
	mapping
	zoom float64
}

// NewZoomMap returns a mapping on nin axes that multiplies every coordinate
// by zoom. The factor must be nonzero so the mapping stays invertible.
func NewZoomMap(nin int, zoom float64, opts ...string) (*ZoomMap, error) {
	if zoom == 0 {
		return nil, &ConfigurationError{Class: "ZoomMap", Reason: "zoom factor must be nonzero"}
	}
	m := &ZoomMap{zoom: zoom}
	if err := m.initMapping(m, "ZoomMap", nin, nin, true, true); err != nil {
		return nil, err
	}
	if err := applyOptions(&m.object, opts); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (m *ZoomMap) Copy() Object {
	cp, _ := NewZoomMap(m.nin, m.zoom)
	m.copyAttrsInto(&cp.object)
	return cp
}

func (m *ZoomMap) forwardRaw(in, out [][]float64, _ int) error {
	for i, row := range in {
		for k, v := range row {
			out[i][k] = v * m.zoom
		}
	}
	return nil
}

func (m *ZoomMap) inverseRaw(in, out [][]float64, _ int) error {
	for i, row := range in {
		for k, v := range row {
			out[i][k] = v / m.zoom
		}
	}
	return nil
}

func (m *ZoomMap) encode() *dumpNode {
	n := &dumpNode{class: "ZoomMap"}
	m.encodeAttrs(n)
	n.addInt("Nin", m.nin)
	n.addFloat("Zoom", m.zoom)
	return n
}
