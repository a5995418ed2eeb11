package warp

// UnitMap is the identity transform on a fixed number of axes. It is the
// canonical result of simplifying a mapping composed with its own inverse
// and disappears again when absorbed into a series composition.
type UnitMap struct {
	mapping
}

// NewUnitMap returns the identity mapping on nin axes.
func NewUnitMap(nin int, opts ...string) (*UnitMap, error) {
	u := &UnitMap{}
	if err := u.initMapping(u, "UnitMap", nin, nin, true, true); err != nil {
		return nil, err
	}
	if err := applyOptions(&u.object, opts); err != nil {
		u.Release()
		return nil, err
	}
	return u, nil
}

func (u *UnitMap) Copy() Object {
	cp, _ := NewUnitMap(u.nin)
	u.copyAttrsInto(&cp.object)
	return cp
}

func (u *UnitMap) forwardRaw(in, out [][]float64, _ int) error {
	copyBatchInto(out, in)
	return nil
}

func (u *UnitMap) inverseRaw(in, out [][]float64, _ int) error {
	copyBatchInto(out, in)
	return nil
}

func (u *UnitMap) encode() *dumpNode {
	n := &dumpNode{class: "UnitMap"}
	u.encodeAttrs(n)
	n.addInt("Nin", u.nin)
	return n
}
