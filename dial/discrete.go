package dial

import "fmt"

// StopTable is an ordered set of stop angles and the region boundaries that
// partition the circle between them. Stop i owns the half-open interval
// (Boundaries[i], Boundaries[i+1]].
type StopTable struct {
	stops      []float64
	boundaries []float64
}

// NewStopTable validates stops (non-empty, strictly increasing, each in
// (-180, 180]) and derives the boundaries [-180, mid(s0,s1), ..., 180].
func NewStopTable(stops []float64) (StopTable, error) {
	if len(stops) == 0 {
		return StopTable{}, fmt.Errorf("stop table must not be empty")
	}
	for i, s := range stops {
		if s <= -180 || s > 180 {
			return StopTable{}, fmt.Errorf("stop[%d]=%v outside (-180, 180]", i, s)
		}
		if i > 0 && s <= stops[i-1] {
			return StopTable{}, fmt.Errorf("stops must be strictly increasing: stop[%d]=%v after %v", i, s, stops[i-1])
		}
	}

	t := StopTable{
		stops:      append([]float64(nil), stops...),
		boundaries: make([]float64, 0, len(stops)+1),
	}
	t.boundaries = append(t.boundaries, -180)
	for i := 0; i < len(stops)-1; i++ {
		t.boundaries = append(t.boundaries, 0.5*(stops[i]+stops[i+1]))
	}
	t.boundaries = append(t.boundaries, 180)
	return t, nil
}

// EvenStops spaces n stops evenly around the circle, leaving the gap at 180.
// It returns nil for n <= 0.
func EvenStops(n int) []float64 {
	if n <= 0 {
		return nil
	}
	stops := make([]float64, n)
	for i := 1; i <= n; i++ {
		stops[i-1] = -180 + 360*float64(i)/float64(n+1)
	}
	return stops
}

func (t StopTable) Len() int { return len(t.stops) }

// Stop returns the angle of stop i.
func (t StopTable) Stop(i int) float64 { return t.stops[i] }

func (t StopTable) Stops() []float64 {
	return append([]float64(nil), t.stops...)
}

func (t StopTable) Boundaries() []float64 {
	return append([]float64(nil), t.boundaries...)
}

// Owns reports whether angle a falls in the region of stop i. Out-of-range
// indices own nothing.
func (t StopTable) Owns(i int, a float64) bool {
	if i < 0 || i >= len(t.stops) {
		return false
	}
	return a > t.boundaries[i] && a <= t.boundaries[i+1]
}

// Locate scans every region for a. It returns -1 if no region owns a.
func (t StopTable) Locate(a float64) int {
	for i := range t.stops {
		if t.Owns(i, a) {
			return i
		}
	}
	return -1
}

// Discrete snaps the dial to the stops of a StopTable and reports the
// active stop index. It never winds through multiple turns.
//
// Each drag sample may move the index by at most one stop: only the
// current stop and its two neighbours are tested. A fast drag that jumps
// over a whole region leaves the index where it was for that sample.
type Discrete struct {
	sampler     Sampler
	grab        float64
	table       StopTable
	onIndex     func(int)
	onIndicator func(float64)

	initial   int
	index     int
	armed     bool
	indicator float64
}

var _ Control = (*Discrete)(nil)

// NewDiscrete builds a discrete control resting on stop initialIndex.
// onIndex receives the index after every accepted drag or release sample;
// it may be nil. cfg.MaxRotations is ignored.
func NewDiscrete(cfg Config, table StopTable, initialIndex int, onIndex func(int)) (*Discrete, error) {
	if table.Len() == 0 {
		return nil, fmt.Errorf("stop table must not be empty")
	}
	if initialIndex < 0 || initialIndex >= table.Len() {
		return nil, fmt.Errorf("initial index %d out of range [0, %d)", initialIndex, table.Len())
	}
	grab, err := cfg.grab(DefaultDiscreteGrab)
	if err != nil {
		return nil, err
	}

	d := &Discrete{
		sampler:     cfg.sampler(),
		grab:        grab,
		table:       table,
		onIndex:     onIndex,
		onIndicator: cfg.OnIndicator,
		initial:     initialIndex,
		index:       initialIndex,
	}
	d.setIndicator(table.Stop(initialIndex))
	return d, nil
}

func (d *Discrete) Press(p Point) bool {
	a, err := d.sampler.Angle(p)
	if err != nil {
		return d.armed
	}
	d.armed = grabbed(a, d.indicator, d.grab)
	return d.armed
}

func (d *Discrete) Drag(p Point) bool {
	if !d.armed {
		return false
	}
	return d.step(p)
}

func (d *Discrete) Release(p Point) bool {
	if !d.armed {
		return false
	}
	ok := d.step(p)
	d.armed = false
	return ok
}

func (d *Discrete) Cancel() { d.armed = false }

// Reset returns to the initial stop. Only the indicator is updated.
func (d *Discrete) Reset() {
	d.index = d.initial
	d.setIndicator(d.table.Stop(d.initial))
}

func (d *Discrete) Armed() bool        { return d.armed }
func (d *Discrete) Indicator() float64 { return d.indicator }

// Index is the active stop.
func (d *Discrete) Index() int { return d.index }

func (d *Discrete) Table() StopTable { return d.table }

func (d *Discrete) step(p Point) bool {
	a, err := d.sampler.Angle(p)
	if err != nil {
		return false
	}

	for _, i := range [3]int{d.index - 1, d.index, d.index + 1} {
		if d.table.Owns(i, a) {
			d.index = i
			break
		}
	}

	d.setIndicator(d.table.Stop(d.index))
	if d.onIndex != nil {
		d.onIndex(d.index)
	}
	return true
}

func (d *Discrete) setIndicator(a float64) {
	d.indicator = a
	if d.onIndicator != nil {
		d.onIndicator(a)
	}
}
