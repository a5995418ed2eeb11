package warp

// CmpMap composes two mappings. In series mode the first mapping's output
// feeds the second mapping's input; in parallel mode the two mappings act
// on disjoint blocks of axes of the same points.
//
// A CmpMap holds counted references to its children, so a child may be
// shared by any number of compositions and user handles; it lives as long
// as its longest lived owner.
type CmpMap struct {
	mapping
	map1   Mapping
	map2   Mapping
	series bool
}

// NewCmpMap is the generalized compound constructor, selecting series or
// parallel composition.
func NewCmpMap(map1, map2 Mapping, series bool, opts ...string) (*CmpMap, error) {
	if series {
		return NewSeriesMap(map1, map2, opts...)
	}
	return NewParallelMap(map1, map2, opts...)
}

// NewSeriesMap chains map1 into map2: forward evaluation applies map1 first.
// The output dimension of map1 must equal the input dimension of map2.
func NewSeriesMap(map1, map2 Mapping, opts ...string) (*CmpMap, error) {
	if map1.NOut() != map2.NIn() {
		return nil, &DimensionMismatchError{
			Context: "series composition: " + map1.ClassName() + " output axes vs " + map2.ClassName() + " input axes",
			Want:    map2.NIn(),
			Got:     map1.NOut(),
		}
	}
	return newCmpMap(map1, map2, true, map1.NIn(), map2.NOut(), opts)
}

// NewParallelMap applies map1 to the first map1.NIn() axes and map2 to the
// remaining map2.NIn() axes of each point, concatenating the outputs in the
// same order. The children need not agree on any dimension.
func NewParallelMap(map1, map2 Mapping, opts ...string) (*CmpMap, error) {
	return newCmpMap(map1, map2, false, map1.NIn()+map2.NIn(), map1.NOut()+map2.NOut(), opts)
}

func newCmpMap(map1, map2 Mapping, series bool, nin, nout int, opts []string) (*CmpMap, error) {
	hasFwd := map1.HasForward() && map2.HasForward()
	hasInv := map1.HasInverse() && map2.HasInverse()
	if !hasFwd && !hasInv {
		return nil, &ConfigurationError{Class: "CmpMap", Reason: "children share no transformation direction"}
	}
	c := &CmpMap{map1: map1, map2: map2, series: series}
	if err := c.initMapping(c, "CmpMap", nin, nout, hasFwd, hasInv); err != nil {
		return nil, err
	}
	map1.obj().retain()
	map2.obj().retain()
	c.drop = func() {
		map1.Release()
		map2.Release()
	}
	if err := applyOptions(&c.object, opts); err != nil {
		c.Release()
		return nil, err
	}
	return c, nil
}

// Series reports whether the composition chains map1 into map2 rather than
// applying the children to disjoint axis blocks.
func (c *CmpMap) Series() bool { return c.series }

func (c *CmpMap) Copy() Object {
	// The children are immutable once composed, so the copy takes counted
	// shares of them rather than duplicating the subgraphs.
	cp, _ := newCmpMap(c.map1, c.map2, c.series, c.nin, c.nout, nil)
	c.copyAttrsInto(&cp.object)
	return cp
}

func (c *CmpMap) forwardRaw(in, out [][]float64, off int) error {
	if c.series {
		mid, err := c.map1.TranForward(in)
		if err != nil {
			return shiftPointError(err, off)
		}
		res, err := c.map2.TranForward(mid)
		if err != nil {
			return shiftPointError(err, off)
		}
		copyBatchInto(out, res)
		return nil
	}
	res1, err := c.map1.TranForward(in[:c.map1.NIn()])
	if err != nil {
		return shiftPointError(err, off)
	}
	res2, err := c.map2.TranForward(in[c.map1.NIn():])
	if err != nil {
		return shiftPointError(err, off)
	}
	copyBatchInto(out[:c.map1.NOut()], res1)
	copyBatchInto(out[c.map1.NOut():], res2)
	return nil
}

func (c *CmpMap) inverseRaw(in, out [][]float64, off int) error {
	if c.series {
		mid, err := c.map2.TranInverse(in)
		if err != nil {
			return shiftPointError(err, off)
		}
		res, err := c.map1.TranInverse(mid)
		if err != nil {
			return shiftPointError(err, off)
		}
		copyBatchInto(out, res)
		return nil
	}
	res1, err := c.map1.TranInverse(in[:c.map1.NOut()])
	if err != nil {
		return shiftPointError(err, off)
	}
	res2, err := c.map2.TranInverse(in[c.map1.NOut():])
	if err != nil {
		return shiftPointError(err, off)
	}
	copyBatchInto(out[:c.map1.NIn()], res1)
	copyBatchInto(out[c.map1.NIn():], res2)
	return nil
}

func (c *CmpMap) encode() *dumpNode {
	n := &dumpNode{class: "CmpMap"}
	c.encodeAttrs(n)
	n.addBool("Series", c.series)
	n.addObject("Map1", encodeObject(c.map1))
	n.addObject("Map2", encodeObject(c.map2))
	return n
}
