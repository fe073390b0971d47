package dial

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrDegenerateDirection is returned by Sampler.Angle when the pointer sits
// exactly on the dial center and no direction can be derived from it.
var ErrDegenerateDirection = errors.New("dial: pointer coincides with dial center")

// Axis selects which world direction maps to angle 0.
type Axis int

const (
	AxisPosX Axis = iota
	AxisPosY
	AxisNegX
	AxisNegY
)

// ParseAxis accepts "x", "+x", "y", "+y", "-x" and "-y".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "x", "+x":
		return AxisPosX, nil
	case "y", "+y":
		return AxisPosY, nil
	case "-x":
		return AxisNegX, nil
	case "-y":
		return AxisNegY, nil
	default:
		return 0, fmt.Errorf("invalid zero axis: %q (must be x, y, -x or -y)", s)
	}
}

func (a Axis) String() string {
	switch a {
	case AxisPosX:
		return "x"
	case AxisPosY:
		return "y"
	case AxisNegX:
		return "-x"
	case AxisNegY:
		return "-y"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// offset is the rotation added to a y-up math angle so that the axis lands on 0.
func (a Axis) offset() float64 {
	switch a {
	case AxisPosY:
		return 270
	case AxisNegX:
		return 180
	case AxisNegY:
		return 90
	default:
		return 0
	}
}

// Direction is the sign convention for increasing angle.
type Direction int

const (
	CounterClockwise Direction = iota
	Clockwise
)

// ParseDirection accepts "counterclockwise"/"ccw" and "clockwise"/"cw".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "counterclockwise", "ccw":
		return CounterClockwise, nil
	case "clockwise", "cw":
		return Clockwise, nil
	default:
		return 0, fmt.Errorf("invalid rotation direction: %q (must be clockwise or counterclockwise)", s)
	}
}

func (d Direction) String() string {
	if d == Clockwise {
		return "clockwise"
	}
	return "counterclockwise"
}

// Point is a coordinate in a y-up frame.
type Point struct {
	X, Y float64
}

// Sampler converts pointer coordinates into dial angles. It is stateless.
type Sampler struct {
	Center    Point
	ZeroAxis  Axis
	Direction Direction
}

// Angle returns the angle of p around the sampler center in degrees,
// normalized into (-180, 180].
func (s Sampler) Angle(p Point) (float64, error) {
	dx := p.X - s.Center.X
	dy := p.Y - s.Center.Y
	if dx == 0 && dy == 0 {
		return 0, ErrDegenerateDirection
	}

	deg := math.Atan2(dy, dx) * 180 / math.Pi
	deg += s.ZeroAxis.offset()
	if s.Direction == Clockwise {
		deg = 360 - deg
	}
	return Normalize(deg), nil
}

// Cartesian maps a dial angle back to a y-up math angle (degrees from +x,
// counterclockwise), normalized into (-180, 180]. Renderers use it to place
// the indicator needle.
func (s Sampler) Cartesian(angle float64) float64 {
	deg := angle
	if s.Direction == Clockwise {
		deg = 360 - deg
	}
	deg += 360 - s.ZeroAxis.offset()
	return Normalize(deg)
}

// Normalize folds deg into (-180, 180].
func Normalize(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return deg
	}
	deg = math.Mod(deg, 360)
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}

// AngularDistance is the smaller of the direct and the wraparound
// difference between two normalized angles.
func AngularDistance(a, b float64) float64 {
	diff := math.Abs(a - b)
	return math.Min(diff, math.Abs(diff-360))
}
