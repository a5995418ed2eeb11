package warp

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Mapping is a typed N dimensional coordinate transform. It can be applied
// to whole point batches in the forward and, when supported, the inverse
// direction, composed with other mappings in series or in parallel, and
// algebraically simplified.
//
// Batches are axis major: points[i][k] is axis i of point k. Evaluation is
// a pure function of the batch and the mapping's fixed parameters; points
// are independent of one another and may be processed in any order.
type Mapping interface {
	Object

	NIn() int
	NOut() int
	HasForward() bool
	HasInverse() bool

	// TranForward transforms a batch of shape [NIn][n] into one of shape
	// [NOut][n]. It fails with a CapabilityError when HasForward is false
	// and with a DimensionMismatchError when the batch has the wrong shape.
	TranForward(points [][]float64) ([][]float64, error)
	// TranInverse is the symmetric operation from NOut axes back to NIn.
	TranInverse(points [][]float64) ([][]float64, error)

	// Inverse returns a mapping with the forward and inverse roles swapped.
	// The receiver is untouched; the result holds a counted reference to it.
	Inverse() Mapping
	// Simplify returns an equivalent, canonical, possibly smaller mapping
	// with the same NIn and NOut. The returned handle is counted and must be
	// released by the caller; it may be the receiver itself.
	Simplify() Mapping
	// Of composes the receiver after other: Of(g) applies g first, then the
	// receiver, and equals NewSeriesMap(g, receiver).
	Of(other Mapping) (Mapping, error)
}

// rawTransform is the per kind evaluation hook behind TranForward and
// TranInverse. in and out are axis major and hold the same number of
// points; out is preallocated and zeroed by the caller. off is the index of
// the first point within the full batch, used only to report errors when
// the batch has been split across goroutines.
type rawTransform interface {
	forwardRaw(in, out [][]float64, off int) error
	inverseRaw(in, out [][]float64, off int) error
}

// mapping implements the generic half of the Mapping contract. Every
// concrete kind embeds it and supplies the rawTransform and dumpEncoder
// halves itself.
type mapping struct {
	object
	self   Mapping
	raw    rawTransform
	nin    int
	nout   int
	hasFwd bool
	hasInv bool
}

// initMapping validates the dimensions and registers the object. self must
// be the concrete kind embedding this mapping; it must also implement
// rawTransform and dumpEncoder.
func (m *mapping) initMapping(self Mapping, class string, nin, nout int, hasFwd, hasInv bool) error {
	if nin < 1 {
		return &DimensionMismatchError{Context: class + ": number of input axes", Want: 1, Got: nin}
	}
	if nout < 1 {
		return &DimensionMismatchError{Context: class + ": number of output axes", Want: 1, Got: nout}
	}
	m.self = self
	m.raw = self.(rawTransform)
	m.nin = nin
	m.nout = nout
	m.hasFwd = hasFwd
	m.hasInv = hasInv
	m.initObject(class, self.(dumpEncoder))
	return nil
}

func (m *mapping) NIn() int         { return m.nin }
func (m *mapping) NOut() int        { return m.nout }
func (m *mapping) HasForward() bool { return m.hasFwd }
func (m *mapping) HasInverse() bool { return m.hasInv }

func (m *mapping) TranForward(points [][]float64) ([][]float64, error) {
	if !m.hasFwd {
		return nil, &CapabilityError{Class: m.class, Direction: "forward"}
	}
	n, err := batchLen(points, m.nin, m.class+" forward")
	if err != nil {
		return nil, err
	}
	out := newBatch(m.nout, n)
	if err := m.eval(m.raw.forwardRaw, points, out, n); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mapping) TranInverse(points [][]float64) ([][]float64, error) {
	if !m.hasInv {
		return nil, &CapabilityError{Class: m.class, Direction: "inverse"}
	}
	n, err := batchLen(points, m.nout, m.class+" inverse")
	if err != nil {
		return nil, err
	}
	out := newBatch(m.nin, n)
	if err := m.eval(m.raw.inverseRaw, points, out, n); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mapping) Inverse() Mapping {
	return newInvMap(m.self)
}

// Simplify on an elementary mapping returns the mapping itself as a fresh
// counted handle. Compound kinds override this with the rewrite engine.
func (m *mapping) Simplify() Mapping {
	m.retain()
	return m.self
}

func (m *mapping) Of(other Mapping) (Mapping, error) {
	return NewSeriesMap(other, m.self)
}

// parallelPoints is the batch size above which evaluation fans out across
// goroutines. Points are independent, so chunked evaluation is bit
// identical to sequential evaluation.
const parallelPoints = 4096

func (m *mapping) eval(fn func(in, out [][]float64, off int) error, in, out [][]float64, n int) error {
	workers := runtime.GOMAXPROCS(0)
	if n < parallelPoints || workers < 2 {
		return fn(in, out, 0)
	}
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		ci := sliceBatch(in, lo, hi)
		co := sliceBatch(out, lo, hi)
		off := lo
		g.Go(func() error { return fn(ci, co, off) })
	}
	return g.Wait()
}

// batchLen checks that points has the expected number of axes and that all
// axis rows agree on the point count, which it returns.
func batchLen(points [][]float64, axes int, context string) (int, error) {
	if len(points) != axes {
		return 0, &DimensionMismatchError{Context: context + ": batch axes", Want: axes, Got: len(points)}
	}
	n := len(points[0])
	for _, row := range points[1:] {
		if len(row) != n {
			return 0, &DimensionMismatchError{Context: context + ": ragged batch", Want: n, Got: len(row)}
		}
	}
	return n, nil
}

func newBatch(axes, n int) [][]float64 {
	out := make([][]float64, axes)
	for i := range out {
		out[i] = make([]float64, n)
	}
	return out
}

// sliceBatch returns a view of the point range [lo, hi) of every axis.
func sliceBatch(b [][]float64, lo, hi int) [][]float64 {
	out := make([][]float64, len(b))
	for i, row := range b {
		out[i] = row[lo:hi]
	}
	return out
}

// copyBatchInto copies src into dst row by row. Shapes must already agree.
func copyBatchInto(dst, src [][]float64) {
	for i, row := range src {
		copy(dst[i], row)
	}
}

// SinglePoint wraps one point given axis by axis as a batch of one.
func SinglePoint(point []float64) [][]float64 {
	batch := make([][]float64, len(point))
	for i, v := range point {
		batch[i] = []float64{v}
	}
	return batch
}

// ApplyForward transforms a single flat point of NIn coordinates and
// returns the transformed point of NOut coordinates.
func ApplyForward(m Mapping, point []float64) ([]float64, error) {
	out, err := m.TranForward(SinglePoint(point))
	if err != nil {
		return nil, err
	}
	return firstPoint(out), nil
}

// ApplyInverse transforms a single flat point of NOut coordinates back
// through the inverse transformation.
func ApplyInverse(m Mapping, point []float64) ([]float64, error) {
	out, err := m.TranInverse(SinglePoint(point))
	if err != nil {
		return nil, err
	}
	return firstPoint(out), nil
}

func firstPoint(batch [][]float64) []float64 {
	point := make([]float64, len(batch))
	for i, row := range batch {
		point[i] = row[0]
	}
	return point
}

// invMap swaps the forward and inverse roles of another mapping. It holds a
// counted reference to the base mapping and no transform state of its own,
// so Simplify can recognize a mapping composed with its own inverse
// structurally instead of by numeric sampling.
type invMap struct {
	mapping
	base Mapping
}

func newInvMap(base Mapping) *invMap {
	iv := &invMap{base: base}
	base.obj().retain()
	// Dimension validity follows from the base mapping, so the error return
	// is impossible here.
	if err := iv.initMapping(iv, "InverseMap", base.NOut(), base.NIn(), base.HasInverse(), base.HasForward()); err != nil {
		base.Release()
		panic(fmt.Sprintf("warp: %v", err))
	}
	iv.drop = func() { base.Release() }
	return iv
}

// Inverse of an inverse is the base mapping itself, returned as a fresh
// counted handle.
func (iv *invMap) Inverse() Mapping {
	iv.base.obj().retain()
	return iv.base
}

func (iv *invMap) Simplify() Mapping {
	s := iv.base.Simplify()
	if s.obj() == iv.base.obj() {
		s.Release()
		iv.retain()
		return iv
	}
	res := newInvMap(s)
	s.Release()
	return res
}

func (iv *invMap) Copy() Object {
	cp := newInvMap(iv.base)
	iv.copyAttrsInto(&cp.object)
	return cp
}

func (iv *invMap) forwardRaw(in, out [][]float64, off int) error {
	res, err := iv.base.TranInverse(in)
	if err != nil {
		return shiftPointError(err, off)
	}
	copyBatchInto(out, res)
	return nil
}

func (iv *invMap) inverseRaw(in, out [][]float64, off int) error {
	res, err := iv.base.TranForward(in)
	if err != nil {
		return shiftPointError(err, off)
	}
	copyBatchInto(out, res)
	return nil
}

func (iv *invMap) encode() *dumpNode {
	n := &dumpNode{class: "InverseMap"}
	iv.encodeAttrs(n)
	n.addObject("Map", encodeObject(iv.base))
	return n
}

func encodeObject(o Object) *dumpNode {
	return o.obj().impl.encode()
}

// shiftPointError rebases the point index of a ConvergenceError raised by a
// nested evaluation so it refers to the caller's batch.
func shiftPointError(err error, off int) error {
	if ce, ok := err.(*ConvergenceError); ok && off != 0 {
		return &ConvergenceError{Class: ce.Class, Point: ce.Point + off, Iters: ce.Iters}
	}
	return err
}
