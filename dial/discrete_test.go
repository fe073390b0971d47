package dial

import (
	"testing"
)

func mustTable(t *testing.T, stops []float64) StopTable {
	t.Helper()
	table, err := NewStopTable(stops)
	if err != nil {
		t.Fatalf("NewStopTable failed: %v", err)
	}
	return table
}

type discreteRecorder struct {
	indices    []int
	indicators []float64
}

func newTestDiscrete(t *testing.T, cfg Config, stops []float64, initial int) (*Discrete, *discreteRecorder) {
	t.Helper()
	rec := &discreteRecorder{}
	cfg.OnIndicator = func(a float64) { rec.indicators = append(rec.indicators, a) }
	d, err := NewDiscrete(cfg, mustTable(t, stops), initial, func(i int) { rec.indices = append(rec.indices, i) })
	if err != nil {
		t.Fatalf("NewDiscrete failed: %v", err)
	}
	return d, rec
}

func TestStopTable_Boundaries(t *testing.T) {
	table := mustTable(t, []float64{-90, 0, 90})
	want := []float64{-180, -45, 45, 180}
	got := table.Boundaries()
	if len(got) != len(want) {
		t.Fatalf("expected %d boundaries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("boundary %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	// Mutating the returned slices must not affect the table.
	got[1] = 1000
	stops := table.Stops()
	stops[0] = 1000
	if table.Boundaries()[1] != -45 || table.Stop(0) != -90 {
		t.Errorf("expected table to be unaffected by caller mutation")
	}
}

func TestStopTable_OwnsHalfOpen(t *testing.T) {
	table := mustTable(t, []float64{0, 90})

	tests := []struct {
		i    int
		a    float64
		want bool
	}{
		{0, 45, true},
		{1, 45, false},
		{1, 45.001, true},
		{0, 44.999, true},
		{0, -180, false},
		{0, -179.999, true},
		{1, 180, true},
		{-1, 0, false},
		{2, 100, false},
	}
	for _, tt := range tests {
		if got := table.Owns(tt.i, tt.a); got != tt.want {
			t.Errorf("Owns(%d, %v): expected %v, got %v", tt.i, tt.a, tt.want, got)
		}
	}

	if got := table.Locate(-180); got != -1 {
		t.Errorf("expected Locate(-180) = -1, got %d", got)
	}
	if got := table.Locate(180); got != 1 {
		t.Errorf("expected Locate(180) = 1, got %d", got)
	}
}

func TestStopTable_Validation(t *testing.T) {
	tests := []struct {
		name  string
		stops []float64
	}{
		{"empty", nil},
		{"at -180", []float64{-180, 0}},
		{"above 180", []float64{0, 181}},
		{"duplicate", []float64{0, 0}},
		{"decreasing", []float64{10, -10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStopTable(tt.stops); err == nil {
				t.Errorf("expected error for stops %v", tt.stops)
			}
		})
	}

	if _, err := NewStopTable([]float64{180}); err != nil {
		t.Errorf("expected a single stop at 180 to be valid, got %v", err)
	}
}

func TestEvenStops(t *testing.T) {
	got := EvenStops(3)
	want := []float64{-90, 0, 90}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("stop %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if _, err := NewStopTable(EvenStops(9)); err != nil {
		t.Errorf("expected even stops to form a valid table, got %v", err)
	}
	for _, n := range []int{0, -1} {
		if got := EvenStops(n); got != nil {
			t.Errorf("EvenStops(%d): expected nil, got %v", n, got)
		}
	}
}

func TestDiscrete_InvalidConstruction(t *testing.T) {
	table := mustTable(t, []float64{-90, 0, 90})
	if _, err := NewDiscrete(Config{}, table, 3, nil); err == nil {
		t.Errorf("expected error for initial index past the end")
	}
	if _, err := NewDiscrete(Config{}, table, -1, nil); err == nil {
		t.Errorf("expected error for negative initial index")
	}
	if _, err := NewDiscrete(Config{}, StopTable{}, 0, nil); err == nil {
		t.Errorf("expected error for empty table")
	}
	if _, err := NewDiscrete(Config{GrabThreshold: -5}, table, 0, nil); err == nil {
		t.Errorf("expected error for negative grab threshold")
	}
}

func TestDiscrete_InitialIndicator(t *testing.T) {
	d, rec := newTestDiscrete(t, Config{}, []float64{-90, 0, 90}, 2)
	if d.Index() != 2 {
		t.Errorf("expected index 2, got %d", d.Index())
	}
	if d.Indicator() != 90 {
		t.Errorf("expected indicator 90, got %v", d.Indicator())
	}
	if len(rec.indicators) != 1 || len(rec.indices) != 0 {
		t.Errorf("expected one indicator update and no index callback, got %d and %d", len(rec.indicators), len(rec.indices))
	}
}

func TestDiscrete_GrabGateUsesIndicator(t *testing.T) {
	d, _ := newTestDiscrete(t, Config{}, []float64{-90, 0, 90}, 1)
	if d.Press(at(15)) {
		t.Errorf("expected press 15 degrees away to be outside the default tolerance")
	}
	if !d.Press(at(5)) {
		t.Errorf("expected press 5 degrees away to arm")
	}
	d.Drag(at(60))
	if d.Index() != 2 {
		t.Fatalf("expected index 2, got %d", d.Index())
	}
	d.Release(at(88))

	// The indicator now shows stop 2, so only presses near 90 arm.
	if d.Press(at(5)) {
		t.Errorf("expected press near the old stop to be rejected")
	}
	if !d.Press(at(95)) {
		t.Errorf("expected press near the new stop to arm")
	}
}

func TestDiscrete_MonotonicSweep(t *testing.T) {
	d, rec := newTestDiscrete(t, Config{}, EvenStops(7), 0)
	if !d.Press(at(-135)) {
		t.Fatalf("expected press at stop 0 to arm")
	}

	prev := d.Index()
	for a := -179.5; a <= 179.5; a += 0.5 {
		if !d.Drag(at(a)) {
			t.Fatalf("expected drag at %v to be accepted", a)
		}
		idx := d.Index()
		if idx < prev {
			t.Fatalf("index decreased from %d to %d at %v", prev, idx, a)
		}
		if idx-prev > 1 {
			t.Fatalf("index jumped from %d to %d at %v", prev, idx, a)
		}
		if d.Indicator() != d.Table().Stop(idx) {
			t.Fatalf("indicator %v does not match stop %d", d.Indicator(), idx)
		}
		prev = idx
	}
	if d.Index() != 6 {
		t.Errorf("expected sweep to end on the last stop, got %d", d.Index())
	}
	if len(rec.indices) != 719 {
		t.Errorf("expected a callback for every sample, got %d", len(rec.indices))
	}
}

func TestDiscrete_FastJumpHoldsIndex(t *testing.T) {
	d, rec := newTestDiscrete(t, Config{}, EvenStops(7), 3)
	d.Press(at(0))

	if !d.Drag(at(90)) {
		t.Fatalf("expected drag to be accepted")
	}
	if d.Index() != 3 {
		t.Errorf("expected index to stay at 3 after skipping a region, got %d", d.Index())
	}
	if len(rec.indices) != 1 || rec.indices[0] != 3 {
		t.Errorf("expected one callback with index 3, got %v", rec.indices)
	}

	d.Drag(at(40))
	d.Drag(at(90))
	if d.Index() != 5 {
		t.Errorf("expected index 5 after stepping through the neighbour, got %d", d.Index())
	}
}

func TestDiscrete_ReleaseDisarmsAndReset(t *testing.T) {
	d, rec := newTestDiscrete(t, Config{}, []float64{-90, 0, 90}, 1)
	d.Press(at(0))
	d.Drag(at(-60))
	if !d.Release(at(-80)) {
		t.Fatalf("expected release sample to be accepted")
	}
	if d.Armed() {
		t.Errorf("expected control to be idle after release")
	}
	if d.Index() != 0 {
		t.Fatalf("expected index 0, got %d", d.Index())
	}
	if d.Drag(at(0)) {
		t.Errorf("expected drag after release to be ignored")
	}

	callbacks := len(rec.indices)
	d.Reset()
	d.Reset()
	if d.Index() != 1 || d.Indicator() != 0 {
		t.Errorf("expected reset to restore stop 1, got index %d indicator %v", d.Index(), d.Indicator())
	}
	if len(rec.indices) != callbacks {
		t.Errorf("expected reset not to invoke the index callback")
	}
}

func TestDiscrete_ClockwiseYAxis(t *testing.T) {
	s := Sampler{ZeroAxis: AxisPosY, Direction: Clockwise}
	d, _ := newTestDiscrete(t, Config{ZeroAxis: AxisPosY, Direction: Clockwise}, []float64{-90, 0, 90}, 1)

	if !d.Press(pointFor(s, 0)) {
		t.Fatalf("expected press at 12 o'clock to arm")
	}
	d.Drag(pointFor(s, 60))
	if d.Index() != 2 {
		t.Errorf("expected clockwise drag to select stop 2, got %d", d.Index())
	}
}
