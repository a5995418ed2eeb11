package warp

// Simplify reduces a compound mapping graph to a canonical equivalent
// mapping with the same NIn and NOut. Children are simplified first, then
// the rewrite rules are applied at this node, in order:
//
//  1. Inverse pair cancellation: a series composition of a mapping with its
//     own inverse, in either order, rewrites to a UnitMap on the shared
//     dimension. The pair is recognized through the Inverse construction
//     relationship, never by sampling the transforms.
//  2. Unit absorption: a UnitMap on either side of a series composition
//     disappears. A parallel composition of two UnitMaps collapses to a
//     single UnitMap on the combined axes.
//
// When no rule applies the result is the node itself, with its children
// replaced by their simplified forms. The rewrite is deterministic and
// idempotent: simplifying a simplified mapping returns an equivalent
// handle unchanged.
func (c *CmpMap) Simplify() Mapping {
	m1 := c.map1.Simplify()
	m2 := c.map2.Simplify()

	if c.series {
		// The pair is checked on the original children as well: when a
		// compound child's Simplify returns a fresh node, the simplified
		// halves no longer share an identity even though the composition
		// was built from a mapping and its own inverse.
		if isInversePair(c.map1, c.map2) || isInversePair(m1, m2) {
			m1.Release()
			m2.Release()
			u, _ := NewUnitMap(c.nin)
			return u
		}
		if _, ok := m1.(*UnitMap); ok {
			m1.Release()
			return m2
		}
		if _, ok := m2.(*UnitMap); ok {
			m2.Release()
			return m1
		}
	} else if isUnit(m1) && isUnit(m2) {
		m1.Release()
		m2.Release()
		u, _ := NewUnitMap(c.nin)
		return u
	}

	if m1.obj() == c.map1.obj() && m2.obj() == c.map2.obj() {
		// Nothing changed anywhere below; the node is already canonical.
		m1.Release()
		m2.Release()
		c.retain()
		return c
	}
	res, err := newCmpMap(m1, m2, c.series, c.nin, c.nout, nil)
	m1.Release()
	m2.Release()
	if err != nil {
		// Children keep their dimensions through simplification, so the
		// recomposition cannot fail; fall back to the receiver regardless.
		c.retain()
		return c
	}
	c.copyAttrsInto(&res.object)
	return res
}

func isUnit(m Mapping) bool {
	_, ok := m.(*UnitMap)
	return ok
}

// isInversePair reports whether one of a and b was constructed as the
// Inverse of the other.
func isInversePair(a, b Mapping) bool {
	if iv, ok := a.(*invMap); ok && iv.base.obj() == b.obj() {
		return true
	}
	if iv, ok := b.(*invMap); ok && iv.base.obj() == a.obj() {
		return true
	}
	return false
}
