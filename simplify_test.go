package warp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSimplifyInversePair(t *testing.T) {
	zoom := mustZoom(t, 2, 1.7)
	defer zoom.Release()
	inv := zoom.Inverse()
	defer inv.Release()

	for _, tc := range []struct {
		name       string
		map1, map2 Mapping
	}{
		{"MapThenInverse", zoom, inv},
		{"InverseThenMap", inv, zoom},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sm, err := NewSeriesMap(tc.map1, tc.map2)
			if err != nil {
				t.Fatalf("NewSeriesMap: %v", err)
			}
			defer sm.Release()

			simp := sm.Simplify()
			defer simp.Release()

			if got := simp.ClassName(); got != "UnitMap" {
				t.Fatalf("simplified class = %q, want UnitMap", got)
			}
			if simp.NIn() != 2 || simp.NOut() != 2 {
				t.Errorf("simplified dimensions = (%d, %d), want (2, 2)", simp.NIn(), simp.NOut())
			}
		})
	}
}

func TestSimplifyInversePairCompoundBase(t *testing.T) {
	// A compound whose own Simplify produces a fresh node: the unit is
	// absorbed, so the simplified children of the outer pair are no longer
	// the objects the pair was built from. The cancellation must still
	// recognize the construction relationship.
	unit, err := NewUnitMap(2)
	if err != nil {
		t.Fatalf("NewUnitMap: %v", err)
	}
	defer unit.Release()
	zoom := mustZoom(t, 2, 1.3)
	defer zoom.Release()
	shift := mustShift(t, -0.5, 1.2)
	defer shift.Release()

	inner, err := NewSeriesMap(unit, zoom)
	if err != nil {
		t.Fatalf("inner NewSeriesMap: %v", err)
	}
	defer inner.Release()
	m, err := NewSeriesMap(inner, shift)
	if err != nil {
		t.Fatalf("compound NewSeriesMap: %v", err)
	}
	defer m.Release()
	inv := m.Inverse()
	defer inv.Release()

	for _, tc := range []struct {
		name       string
		map1, map2 Mapping
	}{
		{"MapThenInverse", m, inv},
		{"InverseThenMap", inv, m},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sm, err := NewSeriesMap(tc.map1, tc.map2)
			if err != nil {
				t.Fatalf("NewSeriesMap: %v", err)
			}
			defer sm.Release()

			simp := sm.Simplify()
			defer simp.Release()
			if got := simp.ClassName(); got != "UnitMap" {
				t.Fatalf("simplified class = %q, want UnitMap", got)
			}
			if simp.NIn() != 2 || simp.NOut() != 2 {
				t.Errorf("simplified dimensions = (%d, %d), want (2, 2)", simp.NIn(), simp.NOut())
			}
		})
	}
}

func TestSimplifyDistinctEqualMapsDoNotCancel(t *testing.T) {
	// Two separately built zooms are equal in value but share no inverse
	// construction relationship, so the pair must survive.
	up := mustZoom(t, 1, 2)
	defer up.Release()
	down := mustZoom(t, 1, 0.5)
	defer down.Release()

	sm, err := NewSeriesMap(up, down)
	if err != nil {
		t.Fatalf("NewSeriesMap: %v", err)
	}
	defer sm.Release()

	simp := sm.Simplify()
	defer simp.Release()
	if got := simp.ClassName(); got != "CmpMap" {
		t.Errorf("simplified class = %q, want CmpMap", got)
	}
}

func TestSimplifyUnitAbsorption(t *testing.T) {
	zoom := mustZoom(t, 2, 1.3)
	defer zoom.Release()
	unit, err := NewUnitMap(2)
	if err != nil {
		t.Fatalf("NewUnitMap: %v", err)
	}
	defer unit.Release()

	for _, tc := range []struct {
		name       string
		map1, map2 Mapping
	}{
		{"UnitFirst", unit, zoom},
		{"UnitSecond", zoom, unit},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sm, err := NewSeriesMap(tc.map1, tc.map2)
			if err != nil {
				t.Fatalf("NewSeriesMap: %v", err)
			}
			defer sm.Release()

			simp := sm.Simplify()
			defer simp.Release()

			if !simp.Same(zoom) {
				t.Errorf("simplified to %s, want the zoom mapping itself", simp.ClassName())
			}
		})
	}
}

func TestSimplifyParallelUnits(t *testing.T) {
	u1, err := NewUnitMap(2)
	if err != nil {
		t.Fatalf("NewUnitMap: %v", err)
	}
	defer u1.Release()
	u3, err := NewUnitMap(3)
	if err != nil {
		t.Fatalf("NewUnitMap: %v", err)
	}
	defer u3.Release()

	pm, err := NewParallelMap(u1, u3)
	if err != nil {
		t.Fatalf("NewParallelMap: %v", err)
	}
	defer pm.Release()

	simp := pm.Simplify()
	defer simp.Release()

	if got := simp.ClassName(); got != "UnitMap" {
		t.Fatalf("simplified class = %q, want UnitMap", got)
	}
	if simp.NIn() != 5 {
		t.Errorf("simplified NIn = %d, want 5", simp.NIn())
	}
}

func TestSimplifyNestedCancellation(t *testing.T) {
	shift := mustShift(t, -0.5, 1.2)
	defer shift.Release()
	inv := shift.Inverse()
	defer inv.Release()
	zoom := mustZoom(t, 2, 1.3)
	defer zoom.Release()

	inner, err := NewSeriesMap(shift, inv)
	if err != nil {
		t.Fatalf("inner NewSeriesMap: %v", err)
	}
	defer inner.Release()
	outer, err := NewSeriesMap(inner, zoom)
	if err != nil {
		t.Fatalf("outer NewSeriesMap: %v", err)
	}
	defer outer.Release()

	// The inner pair cancels to a unit, which the outer series absorbs.
	simp := outer.Simplify()
	defer simp.Release()
	if !simp.Same(zoom) {
		t.Fatalf("simplified to %s, want the zoom mapping itself", simp.ClassName())
	}

	// Simplification preserves behavior.
	want, err := ApplyForward(outer, []float64{1, 2})
	if err != nil {
		t.Fatalf("outer ApplyForward: %v", err)
	}
	got, err := ApplyForward(simp, []float64{1, 2})
	if err != nil {
		t.Fatalf("simplified ApplyForward: %v", err)
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("behavior changed by simplification (-want +got):\n%s", diff)
	}
}

func TestSimplifyLeafReturnsSelf(t *testing.T) {
	zoom := mustZoom(t, 2, 1.3)
	defer zoom.Release()

	simp := zoom.Simplify()
	if !simp.Same(zoom) {
		t.Error("leaf Simplify did not return the mapping itself")
	}
	if got := zoom.RefCount(); got != 2 {
		t.Errorf("RefCount = %d after leaf Simplify, want 2", got)
	}
	simp.Release()
}

func TestSimplifyIdempotent(t *testing.T) {
	a := mustZoom(t, 2, 2)
	defer a.Release()
	b := mustShift(t, 1, -1)
	defer b.Release()

	sm, err := NewSeriesMap(a, b)
	if err != nil {
		t.Fatalf("NewSeriesMap: %v", err)
	}
	defer sm.Release()

	once := sm.Simplify()
	defer once.Release()
	twice := once.Simplify()
	defer twice.Release()

	if !twice.Same(once) {
		t.Error("simplifying a simplified mapping produced a new object")
	}
	if once.Show() != sm.Show() {
		t.Error("an already canonical composition changed under Simplify")
	}
}

func TestSimplifyPreservesDimensions(t *testing.T) {
	shift := mustShift(t, 1, 2, 3)
	defer shift.Release()
	inv := shift.Inverse()
	defer inv.Release()

	sm, err := NewSeriesMap(inv, shift)
	if err != nil {
		t.Fatalf("NewSeriesMap: %v", err)
	}
	defer sm.Release()

	simp := sm.Simplify()
	defer simp.Release()
	if simp.NIn() != 3 || simp.NOut() != 3 {
		t.Errorf("simplified dimensions = (%d, %d), want (3, 3)", simp.NIn(), simp.NOut())
	}
}
