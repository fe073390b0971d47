package dial

import "fmt"

// Continuous is a free-running rotary control that winds through full
// turns and reports an unwrapped angle (wrapped angle + turns*360).
//
// Turn counting infers the direction of a ±180° crossing from two
// consecutive samples: a sample that jumps from the negative half to a
// value above +90 is read as a backward wrap, and a jump from above +90 to
// the negative half as a forward wrap. Callers must therefore deliver drag
// samples often enough that consecutive samples differ by less than 90°.
type Continuous struct {
	sampler     Sampler
	grab        float64
	maxRot      *int
	onValue     func(float64)
	onIndicator func(float64)

	initial float64

	armed     bool
	last      float64
	current   float64
	turns     int
	indicator float64
}

var _ Control = (*Continuous)(nil)

// NewContinuous builds a continuous control showing initAngle. onValue
// receives the unwrapped angle after every accepted drag or release
// sample; it may be nil.
func NewContinuous(cfg Config, initAngle float64, onValue func(float64)) (*Continuous, error) {
	grab, err := cfg.grab(DefaultContinuousGrab)
	if err != nil {
		return nil, err
	}
	var maxRot *int
	if cfg.MaxRotations != nil {
		if *cfg.MaxRotations < 0 {
			return nil, fmt.Errorf("max rotations must be >= 0, got %d", *cfg.MaxRotations)
		}
		n := *cfg.MaxRotations
		maxRot = &n
	}

	start := Normalize(initAngle)
	c := &Continuous{
		sampler:     cfg.sampler(),
		grab:        grab,
		maxRot:      maxRot,
		onValue:     onValue,
		onIndicator: cfg.OnIndicator,
		initial:     start,
		last:        start,
		current:     start,
	}
	c.setIndicator(start)
	return c, nil
}

func (c *Continuous) Press(p Point) bool {
	a, err := c.sampler.Angle(p)
	if err != nil {
		return c.armed
	}
	c.armed = grabbed(a, c.indicator, c.grab)
	return c.armed
}

func (c *Continuous) Drag(p Point) bool {
	if !c.armed {
		return false
	}
	return c.step(p)
}

func (c *Continuous) Release(p Point) bool {
	if !c.armed {
		return false
	}
	ok := c.step(p)
	c.armed = false
	return ok
}

func (c *Continuous) Cancel() { c.armed = false }

// Reset zeroes the turn count and returns to the initial angle. Only the
// indicator is updated; the value callback is not invoked.
func (c *Continuous) Reset() {
	c.turns = 0
	c.current = c.initial
	c.last = c.initial
	c.setIndicator(c.initial)
}

func (c *Continuous) Armed() bool        { return c.armed }
func (c *Continuous) Indicator() float64 { return c.indicator }

// Angle is the current wrapped angle in (-180, 180].
func (c *Continuous) Angle() float64 { return c.current }

// Turns is the net number of full revolutions since the last reset.
func (c *Continuous) Turns() int { return c.turns }

// Value is the unwrapped angle.
func (c *Continuous) Value() float64 {
	return c.current + float64(c.turns)*360
}

func (c *Continuous) step(p Point) bool {
	a, err := c.sampler.Angle(p)
	if err != nil {
		return false
	}

	c.last = c.current
	c.current = a

	switch {
	case c.last < 0 && c.current >= 0 && c.current > 90:
		c.turns--
	case c.last >= 0 && c.current < 0 && c.last > 90:
		c.turns++
	case c.maxRot != nil && c.turns == *c.maxRot && (c.current > 0 || c.last >= 0):
		// Escape band: reversing just past zero leaves the limit without a snap.
		if !(c.last >= 0 && c.current <= 0 && c.current > -c.grab) {
			c.current = 0
		}
	case c.maxRot != nil && c.turns == -*c.maxRot && (c.current < 0 || c.last <= 0):
		if !(c.last <= 0 && c.current >= 0 && c.current < c.grab) {
			c.current = 0
		}
	}

	c.setIndicator(c.current)
	if c.onValue != nil {
		c.onValue(c.Value())
	}
	return true
}

func (c *Continuous) setIndicator(a float64) {
	c.indicator = a
	if c.onIndicator != nil {
		c.onIndicator(a)
	}
}
