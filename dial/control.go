package dial

import "fmt"

// Default grab tolerances, in degrees.
const (
	DefaultContinuousGrab = 20.0
	DefaultDiscreteGrab   = 10.0
)

// Control is the drag protocol shared by every rotary control.
//
// Controls are not safe for concurrent use. Each instance is owned by the
// goroutine that delivers its pointer events, in temporal order.
type Control interface {
	// Press arms the control if p lands within the grab tolerance of the
	// indicator. It reports whether the control is armed afterwards.
	Press(p Point) bool

	// Drag updates the control from p while armed. It reports whether the
	// sample was accepted (and the value callback invoked).
	Drag(p Point) bool

	// Release behaves like a final Drag and then disarms.
	Release(p Point) bool

	// Cancel disarms without taking a sample.
	Cancel()

	// Reset restores construction-time defaults and issues one indicator
	// update. It does not invoke the value callback.
	Reset()

	Armed() bool

	// Indicator is the angle currently displayed by the control.
	Indicator() float64
}

// Config is the immutable configuration of a rotary control.
type Config struct {
	Center    Point
	ZeroAxis  Axis
	Direction Direction

	// GrabThreshold is the angular tolerance (degrees) for arming on press.
	// Zero selects the control's default.
	GrabThreshold float64

	// MaxRotations bounds the signed turn count of a continuous control.
	// Nil means unbounded. Ignored by discrete controls.
	MaxRotations *int

	// OnIndicator, if set, receives every indicator update.
	OnIndicator func(angle float64)
}

// Rotations is a convenience for filling Config.MaxRotations.
func Rotations(n int) *int {
	return &n
}

func (c Config) sampler() Sampler {
	return Sampler{Center: c.Center, ZeroAxis: c.ZeroAxis, Direction: c.Direction}
}

func (c Config) grab(def float64) (float64, error) {
	if c.GrabThreshold < 0 {
		return 0, fmt.Errorf("grab threshold must be >= 0, got %v", c.GrabThreshold)
	}
	if c.GrabThreshold == 0 {
		return def, nil
	}
	return c.GrabThreshold, nil
}

// grabbed reports whether a press at angle a may arm a control displaying indicator.
func grabbed(a, indicator, threshold float64) bool {
	return AngularDistance(a, indicator) < threshold
}
