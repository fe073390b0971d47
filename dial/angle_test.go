package dial

import (
	"errors"
	"math"
	"testing"
)

const angleEps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// pointFor places a unit-distance pointer so that s samples angle a.
func pointFor(s Sampler, a float64) Point {
	rad := s.Cartesian(a) * math.Pi / 180
	return Point{X: s.Center.X + math.Cos(rad), Y: s.Center.Y + math.Sin(rad)}
}

func allSamplers(center Point) []Sampler {
	var out []Sampler
	for _, ax := range []Axis{AxisPosX, AxisPosY, AxisNegX, AxisNegY} {
		for _, dir := range []Direction{CounterClockwise, Clockwise} {
			out = append(out, Sampler{Center: center, ZeroAxis: ax, Direction: dir})
		}
	}
	return out
}

func TestSampler_AxisAndDirection(t *testing.T) {
	tests := []struct {
		name string
		axis Axis
		dir  Direction
		p    Point
		want float64
	}{
		{"x ccw +x", AxisPosX, CounterClockwise, Point{1, 0}, 0},
		{"x ccw +y", AxisPosX, CounterClockwise, Point{0, 1}, 90},
		{"x ccw -x", AxisPosX, CounterClockwise, Point{-1, 0}, 180},
		{"x ccw -y", AxisPosX, CounterClockwise, Point{0, -1}, -90},
		{"y ccw +y", AxisPosY, CounterClockwise, Point{0, 1}, 0},
		{"y ccw +x", AxisPosY, CounterClockwise, Point{1, 0}, -90},
		{"y ccw -x", AxisPosY, CounterClockwise, Point{-1, 0}, 90},
		{"y cw +y", AxisPosY, Clockwise, Point{0, 1}, 0},
		{"y cw +x", AxisPosY, Clockwise, Point{1, 0}, 90},
		{"y cw -x", AxisPosY, Clockwise, Point{-1, 0}, -90},
		{"y cw -y", AxisPosY, Clockwise, Point{0, -1}, 180},
		{"-x ccw -x", AxisNegX, CounterClockwise, Point{-1, 0}, 0},
		{"-x ccw +x", AxisNegX, CounterClockwise, Point{1, 0}, 180},
		{"-y ccw -y", AxisNegY, CounterClockwise, Point{0, -1}, 0},
		{"-y ccw +x", AxisNegY, CounterClockwise, Point{1, 0}, 90},
		{"-y cw +x", AxisNegY, Clockwise, Point{1, 0}, -90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Sampler{ZeroAxis: tt.axis, Direction: tt.dir}
			got, err := s.Angle(tt.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if AngularDistance(got, tt.want) > angleEps {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSampler_CenterOffset(t *testing.T) {
	s := Sampler{Center: Point{10, -4}}
	got, err := s.Angle(Point{10, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(got, 90) {
		t.Errorf("expected 90, got %v", got)
	}
}

func TestSampler_DegenerateDirection(t *testing.T) {
	for _, s := range allSamplers(Point{3, 4}) {
		_, err := s.Angle(Point{3, 4})
		if !errors.Is(err, ErrDegenerateDirection) {
			t.Errorf("%v/%v: expected ErrDegenerateDirection, got %v", s.ZeroAxis, s.Direction, err)
		}
	}
}

func TestSampler_NormalizationTotality(t *testing.T) {
	for _, s := range allSamplers(Point{0, 0}) {
		for x := -5.0; x <= 5.0; x += 0.25 {
			for y := -5.0; y <= 5.0; y += 0.25 {
				if x == 0 && y == 0 {
					continue
				}
				a, err := s.Angle(Point{x, y})
				if err != nil {
					t.Fatalf("unexpected error at (%v,%v): %v", x, y, err)
				}
				if a <= -180 || a > 180 {
					t.Fatalf("%v/%v: angle %v at (%v,%v) outside (-180, 180]", s.ZeroAxis, s.Direction, a, x, y)
				}
			}
		}
	}
}

func TestSampler_CartesianRoundTrip(t *testing.T) {
	for _, s := range allSamplers(Point{-2, 7}) {
		for a := -175.0; a <= 175.0; a += 5 {
			got, err := s.Angle(pointFor(s, a))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if AngularDistance(got, a) > 1e-6 {
				t.Errorf("%v/%v: expected %v, got %v", s.ZeroAxis, s.Direction, a, got)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{540, 180},
		{-190, 170},
		{360, 0},
		{725, 5},
		{-725, -5},
		{179.5, 179.5},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); math.Abs(got-tt.want) > angleEps {
			t.Errorf("Normalize(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestAngularDistance(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{10, 20, 10},
		{170, -170, 20},
		{0, 180, 180},
		{-90, 90, 180},
		{45, 45, 0},
	}
	for _, tt := range tests {
		if got := AngularDistance(tt.a, tt.b); math.Abs(got-tt.want) > angleEps {
			t.Errorf("AngularDistance(%v, %v): expected %v, got %v", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestParseAxisAndDirection(t *testing.T) {
	axes := map[string]Axis{"x": AxisPosX, "+x": AxisPosX, "Y": AxisPosY, "-x": AxisNegX, "-y": AxisNegY}
	for in, want := range axes {
		got, err := ParseAxis(in)
		if err != nil || got != want {
			t.Errorf("ParseAxis(%q): expected %v, got %v (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseAxis("z"); err == nil {
		t.Errorf("expected error for axis z")
	}

	dirs := map[string]Direction{"cw": Clockwise, "clockwise": Clockwise, "ccw": CounterClockwise, "": CounterClockwise}
	for in, want := range dirs {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q): expected %v, got %v (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Errorf("expected error for direction sideways")
	}
}
