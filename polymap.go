package warp

import "math"

// PolyTerm is one row of a PolyMap coefficient table: Coeff multiplies the
// product of the input axes raised to Powers, and the result contributes to
// output axis Out.
type PolyTerm struct {
	Coeff  float64
	Out    int
	Powers []int
}

// PolyMap transforms coordinates with multivariate polynomials. Each output
// axis j is
//
//	f_j(x) = sum over terms with Out == j of Coeff * prod_i x_i^Powers[i]
//
// The inverse either evaluates an explicit reverse coefficient table, which
// is exact and preferred, or, with the IterInverse option, solves the
// forward polynomial numerically with a bounded Newton iteration.
type PolyMap struct {
	mapping
	forward     []PolyTerm
	reverse     []PolyTerm
	iterInverse bool
}

// polyMaxIter bounds the Newton iteration of the numerical inverse; polyTol
// is the relative residual tolerance that counts as converged.
const (
	polyMaxIter = 50
	polyTol     = 1e-12
)

// NewPolyMap builds a polynomial mapping from nin to nout axes. forward
// must be non empty; reverse may be nil. Recognized options: IterInverse
// (0 or 1) enables the numerical inverse when no reverse table is given,
// which requires nin == nout; the generic Object options are also accepted.
func NewPolyMap(nin, nout int, forward, reverse []PolyTerm, opts ...string) (*PolyMap, error) {
	pairs, err := parseOptions("PolyMap", opts)
	if err != nil {
		return nil, err
	}
	iter := false
	if value, rest, found := splitOption(pairs, "IterInverse"); found {
		if iter, err = parseBoolOption("PolyMap", "IterInverse", value); err != nil {
			return nil, err
		}
		pairs = rest
	}
	if len(forward) == 0 {
		return nil, &ConfigurationError{Class: "PolyMap", Reason: "forward coefficient table is empty"}
	}
	if err := checkTerms(forward, nin, nout, "forward"); err != nil {
		return nil, err
	}
	if err := checkTerms(reverse, nout, nin, "reverse"); err != nil {
		return nil, err
	}
	if iter && len(reverse) == 0 && nin != nout {
		return nil, &ConfigurationError{
			Class: "PolyMap", Option: "IterInverse",
			Reason: "iterative inverse requires equal input and output dimensions",
		}
	}
	p := &PolyMap{
		forward:     copyTerms(forward),
		reverse:     copyTerms(reverse),
		iterInverse: iter,
	}
	hasInv := len(reverse) > 0 || iter
	if err := p.initMapping(p, "PolyMap", nin, nout, true, hasInv); err != nil {
		return nil, err
	}
	if err := applyPairs(&p.object, pairs); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func checkTerms(terms []PolyTerm, nin, nout int, table string) error {
	for _, t := range terms {
		if t.Out < 0 || t.Out >= nout {
			return &ConfigurationError{Class: "PolyMap", Reason: table + " term output index out of range"}
		}
		if len(t.Powers) != nin {
			return &ConfigurationError{Class: "PolyMap", Reason: table + " term power count does not match the axis count"}
		}
		for _, pw := range t.Powers {
			if pw < 0 {
				return &ConfigurationError{Class: "PolyMap", Reason: table + " term power is negative"}
			}
		}
	}
	return nil
}

func copyTerms(terms []PolyTerm) []PolyTerm {
	if terms == nil {
		return nil
	}
	out := make([]PolyTerm, len(terms))
	for i, t := range terms {
		out[i] = PolyTerm{Coeff: t.Coeff, Out: t.Out, Powers: append([]int(nil), t.Powers...)}
	}
	return out
}

func (p *PolyMap) Copy() Object {
	cp := &PolyMap{
		forward:     copyTerms(p.forward),
		reverse:     copyTerms(p.reverse),
		iterInverse: p.iterInverse,
	}
	// The receiver was validated at construction, so this cannot fail.
	_ = cp.initMapping(cp, "PolyMap", p.nin, p.nout, p.hasFwd, p.hasInv)
	p.copyAttrsInto(&cp.object)
	return cp
}

// IterInverse reports whether the numerical inverse is enabled.
func (p *PolyMap) IterInverse() bool { return p.iterInverse }

func (p *PolyMap) forwardRaw(in, out [][]float64, _ int) error {
	evalTerms(p.forward, in, out)
	return nil
}

func (p *PolyMap) inverseRaw(in, out [][]float64, off int) error {
	if len(p.reverse) > 0 {
		evalTerms(p.reverse, in, out)
		return nil
	}
	return p.iterateInverse(in, out, off)
}

// evalTerms evaluates a coefficient table on every point of in, writing
// into out. out rows are freshly zeroed by the caller.
func evalTerms(terms []PolyTerm, in, out [][]float64) {
	n := 0
	if len(in) > 0 {
		n = len(in[0])
	}
	x := make([]float64, len(in))
	acc := make([]float64, len(out))
	for k := 0; k < n; k++ {
		for i := range in {
			x[i] = in[i][k]
		}
		for j := range acc {
			acc[j] = 0
		}
		for _, t := range terms {
			v := t.Coeff
			for i, pw := range t.Powers {
				v *= ipow(x[i], pw)
			}
			acc[t.Out] += v
		}
		for j := range out {
			out[j][k] = acc[j]
		}
	}
}

// evalPoint evaluates a coefficient table on a single point.
func evalPoint(terms []PolyTerm, x []float64, nout int) []float64 {
	f := make([]float64, nout)
	for _, t := range terms {
		v := t.Coeff
		for i, pw := range t.Powers {
			v *= ipow(x[i], pw)
		}
		f[t.Out] += v
	}
	return f
}

// iterateInverse solves f(x) = y per point with Newton's method, starting
// from x = y. The iteration is bounded; a point that does not converge
// fails the whole call with a ConvergenceError and leaves no state behind.
func (p *PolyMap) iterateInverse(in, out [][]float64, off int) error {
	n := len(in[0])
	dim := p.nin
	x := make([]float64, dim)
	y := make([]float64, dim)
	for k := 0; k < n; k++ {
		for i := range y {
			y[i] = in[i][k]
			x[i] = in[i][k]
		}
		scale := 1.0
		for _, v := range y {
			if a := math.Abs(v); a > scale {
				scale = a
			}
		}
		converged := false
		for it := 0; it < polyMaxIter; it++ {
			f := evalPoint(p.forward, x, dim)
			resid := 0.0
			for j := range f {
				f[j] -= y[j]
				if a := math.Abs(f[j]); a > resid {
					resid = a
				}
			}
			if resid <= polyTol*scale {
				converged = true
				break
			}
			jac := p.jacobian(x)
			dx, ok := solveLinear(jac, f)
			if !ok {
				break
			}
			for i := range x {
				x[i] -= dx[i]
			}
		}
		if !converged {
			return &ConvergenceError{Class: "PolyMap", Point: off + k, Iters: polyMaxIter}
		}
		for i := range x {
			out[i][k] = x[i]
		}
	}
	return nil
}

// jacobian evaluates the forward polynomial's Jacobian at x.
func (p *PolyMap) jacobian(x []float64) [][]float64 {
	jac := newBatch(p.nout, p.nin)
	for _, t := range p.forward {
		for i, pw := range t.Powers {
			if pw == 0 {
				continue
			}
			v := t.Coeff * float64(pw) * ipow(x[i], pw-1)
			for l, pl := range t.Powers {
				if l != i {
					v *= ipow(x[l], pl)
				}
			}
			jac[t.Out][i] += v
		}
	}
	return jac
}

// solveLinear solves a*dx = b in place with Gaussian elimination and
// partial pivoting. It reports false when the matrix is singular.
func solveLinear(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-300 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]
		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n; c++ {
				a[row][c] -= factor * a[col][c]
			}
			b[row] -= factor * b[col]
		}
	}
	dx := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for c := row + 1; c < n; c++ {
			sum -= a[row][c] * dx[c]
		}
		dx[row] = sum / a[row][row]
	}
	return dx, true
}

// ipow raises x to a small non negative integer power with repeated
// multiplication, which is deterministic across platforms.
func ipow(x float64, n int) float64 {
	r := 1.0
	for ; n > 0; n-- {
		r *= x
	}
	return r
}

func (p *PolyMap) encode() *dumpNode {
	n := &dumpNode{class: "PolyMap"}
	p.encodeAttrs(n)
	n.addInt("Nin", p.nin)
	n.addInt("Nout", p.nout)
	if p.iterInverse {
		n.addBool("IterInverse", true)
	}
	for _, t := range p.forward {
		n.addTerm("Forward", t)
	}
	for _, t := range p.reverse {
		n.addTerm("Reverse", t)
	}
	return n
}
