package panel

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"opticsbench/dial"
)

// Kind selects the control behind a dial.
type Kind string

const (
	KindContinuous Kind = "continuous"
	KindDiscrete   Kind = "discrete"
)

// DefaultMaxRotations bounds continuous dials that do not set max_rotations.
const DefaultMaxRotations = 5

// Config describes the panel surface and its dials. Coordinates are screen
// pixels with y growing downwards.
type Config struct {
	Width  int        `yaml:"width"`
	Height int        `yaml:"height"`
	Dials  []DialSpec `yaml:"dials"`
}

type DialSpec struct {
	Name   string  `yaml:"name"`
	Label  string  `yaml:"label"`
	Unit   string  `yaml:"unit,omitempty"`
	Kind   Kind    `yaml:"kind"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`

	// Sampler frame; empty strings select +y / clockwise, the bench convention.
	ZeroAxis  string `yaml:"zero_axis,omitempty"`
	Direction string `yaml:"direction,omitempty"`

	GrabDeg float64 `yaml:"grab_deg,omitempty"`

	// Continuous only:
	// the reading sweeps Range[0]..Range[1] over 2*MaxRotations turns.
	// Nil selects DefaultMaxRotations.
	MaxRotations *int      `yaml:"max_rotations,omitempty"`
	Range        []float64 `yaml:"range,omitempty"`
	Precision    int       `yaml:"precision,omitempty"`

	// Discrete only.
	Values       []float64 `yaml:"values,omitempty"`
	Stops        []float64 `yaml:"stops,omitempty"` // defaults to dial.EvenStops(len(values))
	InitialIndex *int      `yaml:"initial_index,omitempty"`
}

// DefaultConfig returns the optics bench layout: optical bench, signal
// generator, amplifier and oscilloscope controls.
func DefaultConfig() Config {
	divisions := []float64{10, 20, 50, 100, 200, 500, 1000, 2000, 5000}
	return Config{
		Width:  720,
		Height: 480,
		Dials: []DialSpec{
			{Name: "qwp_angle", Label: "QWP Angle", Unit: "°", Kind: KindContinuous, X: 120, Y: 80, Radius: 40,
				Range: []float64{0, 90}, MaxRotations: dial.Rotations(1), Precision: 1},
			{Name: "amplitude", Label: "Amplitude", Unit: "V", Kind: KindContinuous, X: 120, Y: 240, Radius: 40,
				Range: []float64{0, 50}, MaxRotations: dial.Rotations(1), Precision: 1},
			{Name: "frequency", Label: "Frequency", Unit: "kHz", Kind: KindContinuous, X: 120, Y: 400, Radius: 40,
				Range: []float64{0.01, 50}, MaxRotations: dial.Rotations(1), Precision: 1},
			{Name: "dc_offset", Label: "DC Offset", Unit: "V", Kind: KindContinuous, X: 360, Y: 80, Radius: 40,
				Range: []float64{-200, 200}, MaxRotations: dial.Rotations(2), Precision: 1},
			{Name: "ch1_division", Label: "CH1 Division", Unit: "mV", Kind: KindDiscrete, X: 360, Y: 240, Radius: 40,
				Values: divisions},
			{Name: "ch1_center", Label: "CH1 Center", Unit: "mV", Kind: KindContinuous, X: 360, Y: 400, Radius: 40,
				Range: []float64{-25e3, 25e3}},
			{Name: "ch2_division", Label: "CH2 Division", Unit: "mV", Kind: KindDiscrete, X: 600, Y: 80, Radius: 40,
				Values: divisions},
			{Name: "ch2_center", Label: "CH2 Center", Unit: "mV", Kind: KindContinuous, X: 600, Y: 240, Radius: 40,
				Range: []float64{-25e3, 25e3}},
			{Name: "time_base", Label: "Time", Unit: "μs", Kind: KindDiscrete, X: 600, Y: 400, Radius: 40,
				Values: []float64{10, 20, 50, 100, 200}},
		},
	}
}

// configFile is the daemon's file layout. Only the panel section is decoded;
// the sibling sections are listed so strict decoding still accepts them.
type configFile struct {
	Panel   Config    `yaml:"panel"`
	HTTP    yaml.Node `yaml:"http"`
	IPC     yaml.Node `yaml:"ipc"`
	Input   yaml.Node `yaml:"input"`
	Watch   yaml.Node `yaml:"watch"`
	Logging yaml.Node `yaml:"logging"`
}

// LoadConfigFile reads the panel section of a YAML file. The daemon's other
// sections are skipped, but unknown fields anywhere are rejected.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	doc := configFile{Panel: DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}
	if err := doc.Panel.Validate(); err != nil {
		return Config{}, err
	}
	return doc.Panel, nil
}

// Validate checks every dial definition. It is called by New, so callers
// only need it to report problems early.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("panel.width and panel.height must be > 0, got %dx%d", c.Width, c.Height)
	}
	if len(c.Dials) == 0 {
		return errors.New("panel.dials must not be empty")
	}
	seen := make(map[string]bool, len(c.Dials))
	for i := range c.Dials {
		d := &c.Dials[i]
		if d.Name == "" {
			return fmt.Errorf("panel.dials[%d].name must not be empty", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("panel.dials[%d]: duplicate name %q", i, d.Name)
		}
		seen[d.Name] = true
		if err := d.validate(); err != nil {
			return fmt.Errorf("panel.dials[%d] (%s): %w", i, d.Name, err)
		}
	}
	return nil
}

func (d *DialSpec) validate() error {
	if d.Radius <= 0 {
		return errors.New("radius must be > 0")
	}
	if _, err := d.sampler(); err != nil {
		return err
	}
	if d.GrabDeg < 0 {
		return errors.New("grab_deg must be >= 0")
	}
	if d.Precision < 0 || d.Precision > 6 {
		return errors.New("precision must be between 0 and 6")
	}

	switch d.Kind {
	case KindContinuous:
		if len(d.Range) != 2 {
			return errors.New("continuous dials need range: [lo, hi]")
		}
		if d.Range[0] == d.Range[1] {
			return errors.New("range must not be empty")
		}
		// The readout spreads the range over the travel, so it needs some.
		if d.MaxRotations != nil && *d.MaxRotations <= 0 {
			return fmt.Errorf("max_rotations must be > 0, got %d", *d.MaxRotations)
		}
	case KindDiscrete:
		if len(d.Values) == 0 {
			return errors.New("discrete dials need values")
		}
		if len(d.Stops) > 0 && len(d.Stops) != len(d.Values) {
			return fmt.Errorf("stops has %d entries but values has %d", len(d.Stops), len(d.Values))
		}
		if _, err := d.stopTable(); err != nil {
			return err
		}
		if idx := d.initialIndex(); idx < 0 || idx >= len(d.Values) {
			return fmt.Errorf("initial_index %d out of range", idx)
		}
	default:
		return fmt.Errorf("kind must be %q or %q, got %q", KindContinuous, KindDiscrete, d.Kind)
	}
	return nil
}

func (d *DialSpec) maxRotations() int {
	if d.MaxRotations == nil {
		return DefaultMaxRotations
	}
	return *d.MaxRotations
}

func (d *DialSpec) initialIndex() int {
	if d.InitialIndex != nil {
		return *d.InitialIndex
	}
	return len(d.Values) / 2
}

func (d *DialSpec) stopTable() (dial.StopTable, error) {
	stops := d.Stops
	if len(stops) == 0 {
		stops = dial.EvenStops(len(d.Values))
	}
	return dial.NewStopTable(stops)
}

// sampler returns the dial's frame: centre in y-up coordinates.
func (d *DialSpec) sampler() (dial.Sampler, error) {
	axis := dial.AxisPosY
	if d.ZeroAxis != "" {
		a, err := dial.ParseAxis(d.ZeroAxis)
		if err != nil {
			return dial.Sampler{}, err
		}
		axis = a
	}
	dir := dial.Clockwise
	if d.Direction != "" {
		r, err := dial.ParseDirection(d.Direction)
		if err != nil {
			return dial.Sampler{}, err
		}
		dir = r
	}
	return dial.Sampler{Center: toDial(d.X, d.Y), ZeroAxis: axis, Direction: dir}, nil
}

// toDial flips a screen point into the y-up frame the dial package expects.
func toDial(x, y float64) dial.Point {
	return dial.Point{X: x, Y: -y}
}
