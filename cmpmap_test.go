package warp

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSeriesMapForward(t *testing.T) {
	shift := mustShift(t, -0.5, 1.2)
	defer shift.Release()
	zoom := mustZoom(t, 2, 1.3)
	defer zoom.Release()

	sm, err := NewSeriesMap(shift, zoom)
	if err != nil {
		t.Fatalf("NewSeriesMap: %v", err)
	}
	defer sm.Release()

	if !sm.Series() {
		t.Error("Series = false for a series composition")
	}
	if sm.NIn() != 2 || sm.NOut() != 2 {
		t.Errorf("dimensions = (%d, %d), want (2, 2)", sm.NIn(), sm.NOut())
	}

	// Shift first, then zoom: (1 - 0.5) * 1.3 and (2 + 1.2) * 1.3.
	got, err := ApplyForward(sm, []float64{1, 2})
	if err != nil {
		t.Fatalf("ApplyForward: %v", err)
	}
	if diff := cmp.Diff([]float64{0.65, 4.16}, got, approx); diff != "" {
		t.Errorf("series forward mismatch (-want +got):\n%s", diff)
	}

	back, err := ApplyInverse(sm, got)
	if err != nil {
		t.Fatalf("ApplyInverse: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2}, back, approx); diff != "" {
		t.Errorf("series round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParallelMapForward(t *testing.T) {
	shift := mustShift(t, -0.5, 1.2)
	defer shift.Release()
	zoom := mustZoom(t, 2, 1.3)
	defer zoom.Release()

	pm, err := NewParallelMap(shift, zoom)
	if err != nil {
		t.Fatalf("NewParallelMap: %v", err)
	}
	defer pm.Release()

	if pm.Series() {
		t.Error("Series = true for a parallel composition")
	}
	if pm.NIn() != 4 || pm.NOut() != 4 {
		t.Errorf("dimensions = (%d, %d), want (4, 4)", pm.NIn(), pm.NOut())
	}

	// First two axes shifted, last two zoomed.
	got, err := ApplyForward(pm, []float64{-3, 2.2, -5.6, 0.32})
	if err != nil {
		t.Fatalf("ApplyForward: %v", err)
	}
	if diff := cmp.Diff([]float64{-3.5, 3.4, -7.28, 0.416}, got, approx); diff != "" {
		t.Errorf("parallel forward mismatch (-want +got):\n%s", diff)
	}

	back, err := ApplyInverse(pm, got)
	if err != nil {
		t.Fatalf("ApplyInverse: %v", err)
	}
	if diff := cmp.Diff([]float64{-3, 2.2, -5.6, 0.32}, back, approx); diff != "" {
		t.Errorf("parallel round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSeriesMapDimensionMismatch(t *testing.T) {
	shift := mustShift(t, 1, 2, 3)
	defer shift.Release()
	zoom := mustZoom(t, 2, 1.5)
	defer zoom.Release()

	var dimErr *DimensionMismatchError
	if _, err := NewSeriesMap(shift, zoom); !errors.As(err, &dimErr) {
		t.Fatalf("NewSeriesMap error = %v, want DimensionMismatchError", err)
	}
	// A failed composition leaves the children untouched.
	if got := shift.RefCount(); got != 1 {
		t.Errorf("shift RefCount = %d after failed composition, want 1", got)
	}
	if got := zoom.RefCount(); got != 1 {
		t.Errorf("zoom RefCount = %d after failed composition, want 1", got)
	}
}

func TestCmpMapGeneralConstructor(t *testing.T) {
	a := mustZoom(t, 2, 2)
	defer a.Release()
	b := mustZoom(t, 2, 3)
	defer b.Release()

	series, err := NewCmpMap(a, b, true)
	if err != nil {
		t.Fatalf("NewCmpMap series: %v", err)
	}
	defer series.Release()
	parallel, err := NewCmpMap(a, b, false)
	if err != nil {
		t.Fatalf("NewCmpMap parallel: %v", err)
	}
	defer parallel.Release()

	if !series.Series() || parallel.Series() {
		t.Errorf("Series flags = (%v, %v), want (true, false)", series.Series(), parallel.Series())
	}
	got, err := ApplyForward(series, []float64{1, 1})
	if err != nil {
		t.Fatalf("series ApplyForward: %v", err)
	}
	if diff := cmp.Diff([]float64{6, 6}, got, approx); diff != "" {
		t.Errorf("series 2x then 3x mismatch (-want +got):\n%s", diff)
	}
}

func TestCmpMapHoldsChildren(t *testing.T) {
	nobj := NObject()
	shift := mustShift(t, 1)
	zoom := mustZoom(t, 1, 2)

	sm, err := NewSeriesMap(shift, zoom)
	if err != nil {
		t.Fatalf("NewSeriesMap: %v", err)
	}
	if got := shift.RefCount(); got != 2 {
		t.Errorf("child RefCount = %d inside composition, want 2", got)
	}

	// The compound keeps the children alive after the caller's handles go.
	shift.Release()
	zoom.Release()
	got, err := ApplyForward(sm, []float64{3})
	if err != nil {
		t.Fatalf("ApplyForward: %v", err)
	}
	if got[0] != 8 {
		t.Errorf("(3 + 1) * 2 = %v, want 8", got[0])
	}

	sm.Release()
	if got := NObject(); got != nobj {
		t.Errorf("NObject = %d after releasing everything, want %d", got, nobj)
	}
}

func TestCmpMapSharedChild(t *testing.T) {
	zoom := mustZoom(t, 1, 3)
	defer zoom.Release()

	// The same mapping composed with itself: x * 9.
	sm, err := zoom.Of(zoom)
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	defer sm.Release()

	got, err := ApplyForward(sm, []float64{2})
	if err != nil {
		t.Fatalf("ApplyForward: %v", err)
	}
	if got[0] != 18 {
		t.Errorf("zoom of zoom at 2 = %v, want 18", got[0])
	}
}

func TestCmpMapCopySharesChildren(t *testing.T) {
	shift := mustShift(t, 1, 2)
	defer shift.Release()
	zoom := mustZoom(t, 2, 2)
	defer zoom.Release()

	sm, err := NewSeriesMap(shift, zoom)
	if err != nil {
		t.Fatalf("NewSeriesMap: %v", err)
	}
	defer sm.Release()

	nobj := NObject()
	cp := sm.Copy().(*CmpMap)
	defer cp.Release()

	if got := NObject(); got != nobj+1 {
		t.Errorf("NObject = %d after compound copy, want %d", got, nobj+1)
	}
	if cp.Show() != sm.Show() {
		t.Error("compound copy dump differs from the original")
	}
	if cp.Same(sm) {
		t.Error("compound copy is Same as the original")
	}
	got, err := ApplyForward(cp, []float64{1, 1})
	if err != nil {
		t.Fatalf("copy ApplyForward: %v", err)
	}
	if diff := cmp.Diff([]float64{4, 6}, got, approx); diff != "" {
		t.Errorf("copy forward mismatch (-want +got):\n%s", diff)
	}
}

func TestCmpMapMixedCapability(t *testing.T) {
	fwdOnly, err := NewPolyMap(1, 1, []PolyTerm{{Coeff: 1, Out: 0, Powers: []int{2}}}, nil)
	if err != nil {
		t.Fatalf("NewPolyMap: %v", err)
	}
	defer fwdOnly.Release()
	zoom := mustZoom(t, 1, 2)
	defer zoom.Release()

	sm, err := NewSeriesMap(fwdOnly, zoom)
	if err != nil {
		t.Fatalf("NewSeriesMap: %v", err)
	}
	defer sm.Release()

	if !sm.HasForward() || sm.HasInverse() {
		t.Errorf("capabilities = (%v, %v), want (true, false)", sm.HasForward(), sm.HasInverse())
	}
	var capErr *CapabilityError
	if _, err := sm.TranInverse([][]float64{{1}}); !errors.As(err, &capErr) {
		t.Errorf("TranInverse error = %v, want CapabilityError", err)
	}

	// A forward only child composed with an inverse only child shares no
	// direction at all.
	invOnly := fwdOnly.Inverse()
	defer invOnly.Release()
	var cfgErr *ConfigurationError
	if _, err := NewSeriesMap(fwdOnly, invOnly); !errors.As(err, &cfgErr) {
		t.Errorf("no shared direction error = %v, want ConfigurationError", err)
	}
}
