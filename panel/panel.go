package panel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"opticsbench/dial"
)

var (
	ErrUnknownDial = errors.New("unknown dial")
	ErrNoDial      = errors.New("no dial under pointer")
	ErrCaptured    = errors.New("dial is held by another pointer")
	ErrPointerBusy = errors.New("pointer already holds a dial")
)

// hitSlack widens the hit area around each dial face.
const hitSlack = 1.2

// Origin says which pointer phase (or reset) produced a ValueChange.
type Origin string

const (
	OriginDrag    Origin = "drag"
	OriginRelease Origin = "release"
	OriginReset   Origin = "reset"
)

// ValueChange is emitted after every accepted sample and after every reset.
type ValueChange struct {
	Dial    string  `json:"dial"`
	Reading float64 `json:"reading"`
	Text    string  `json:"text"`
	// Degrees is the unwrapped angle of a continuous dial or the stop
	// angle of a discrete one.
	Degrees float64 `json:"degrees"`
	Index   int     `json:"index"` // -1 for continuous dials
	Changed bool    `json:"changed"`
	Origin  Origin  `json:"origin"`
}

type IndicatorChange struct {
	Dial  string  `json:"dial"`
	Angle float64 `json:"angle"`
}

// DialState is a read-only view of one dial.
type DialState struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	Unit      string  `json:"unit"`
	Kind      Kind    `json:"kind"`
	Reading   float64 `json:"reading"`
	Text      string  `json:"text"`
	Indicator float64 `json:"indicator"`
	Degrees   float64 `json:"degrees"`
	Turns     int     `json:"turns"`
	Index     int     `json:"index"`
	Armed     bool    `json:"armed"`
}

type Hooks struct {
	OnValue     func(ValueChange)
	OnIndicator func(IndicatorChange)
}

// Panel routes screen-space pointer events to a set of rotary controls and
// converts their positions into instrument readings.
//
// A Panel is not safe for concurrent use; the daemon loop owns it.
type Panel struct {
	cfg      Config
	dials    []*panelDial
	byName   map[string]*panelDial
	captures map[int]*panelDial
	hooks    Hooks
	logger   *slog.Logger
}

type panelDial struct {
	spec    DialSpec
	sampler dial.Sampler
	control dial.Control
	cont    *dial.Continuous
	disc    *dial.Discrete
	readout readout

	reading float64
	held    bool
	pointer int

	origin Origin
	live   bool
	hooks  *Hooks
}

// New validates cfg and builds one control per dial. Construction does not
// fire any hook.
func New(cfg Config, hooks Hooks, logger *slog.Logger) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Panel{
		cfg:      cfg,
		byName:   make(map[string]*panelDial, len(cfg.Dials)),
		captures: make(map[int]*panelDial),
		hooks:    hooks,
		logger:   logger,
	}
	for i := range cfg.Dials {
		d, err := newPanelDial(cfg.Dials[i], &p.hooks)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.Dials[i].Name, err)
		}
		p.dials = append(p.dials, d)
		p.byName[d.spec.Name] = d
	}
	return p, nil
}

func newPanelDial(spec DialSpec, hooks *Hooks) (*panelDial, error) {
	s, err := spec.sampler()
	if err != nil {
		return nil, err
	}
	d := &panelDial{
		spec:    spec,
		sampler: s,
		readout: newReadout(&spec),
		hooks:   hooks,
	}

	cfg := dial.Config{
		Center:        s.Center,
		ZeroAxis:      s.ZeroAxis,
		Direction:     s.Direction,
		GrabThreshold: spec.GrabDeg,
		OnIndicator:   d.indicatorChanged,
	}

	switch spec.Kind {
	case KindContinuous:
		cfg.MaxRotations = dial.Rotations(spec.maxRotations())
		c, err := dial.NewContinuous(cfg, 0, d.continuousChanged)
		if err != nil {
			return nil, err
		}
		d.cont, d.control = c, c
		d.reading = d.readout.fromDegrees(c.Value())
	case KindDiscrete:
		table, err := spec.stopTable()
		if err != nil {
			return nil, err
		}
		c, err := dial.NewDiscrete(cfg, table, spec.initialIndex(), d.discreteChanged)
		if err != nil {
			return nil, err
		}
		d.disc, d.control = c, c
		d.reading = d.readout.fromIndex(c.Index())
	}
	d.live = true
	return d, nil
}

func (d *panelDial) continuousChanged(deg float64) {
	d.emit(d.readout.fromDegrees(deg), deg, -1)
}

func (d *panelDial) discreteChanged(i int) {
	d.emit(d.readout.fromIndex(i), d.disc.Table().Stop(i), i)
}

func (d *panelDial) emit(reading, deg float64, index int) {
	changed := reading != d.reading
	d.reading = reading
	if d.hooks.OnValue == nil {
		return
	}
	d.hooks.OnValue(ValueChange{
		Dial:    d.spec.Name,
		Reading: reading,
		Text:    d.readout.format(reading),
		Degrees: deg,
		Index:   index,
		Changed: changed,
		Origin:  d.origin,
	})
}

func (d *panelDial) indicatorChanged(angle float64) {
	if !d.live || d.hooks.OnIndicator == nil {
		return
	}
	d.hooks.OnIndicator(IndicatorChange{Dial: d.spec.Name, Angle: angle})
}

// reset restores the control and resynchronises the reading. The control
// itself only repaints its indicator on reset, so the panel reports the
// resulting value.
func (d *panelDial) reset() {
	d.control.Reset()
	d.origin = OriginReset
	if d.cont != nil {
		d.continuousChanged(d.cont.Value())
		return
	}
	d.discreteChanged(d.disc.Index())
}

func (d *panelDial) state() DialState {
	st := DialState{
		Name:      d.spec.Name,
		Label:     d.spec.Label,
		Unit:      d.spec.Unit,
		Kind:      d.spec.Kind,
		Reading:   d.reading,
		Text:      d.readout.format(d.reading),
		Indicator: d.control.Indicator(),
		Index:     -1,
		Armed:     d.control.Armed(),
	}
	if d.cont != nil {
		st.Degrees = d.cont.Value()
		st.Turns = d.cont.Turns()
	} else {
		st.Index = d.disc.Index()
		st.Degrees = d.disc.Table().Stop(st.Index)
	}
	return st
}

func (p *Panel) Config() Config { return p.cfg }

// HitTest returns the dial nearest to (x, y) whose slackened face contains
// the point.
func (p *Panel) HitTest(x, y float64) (string, bool) {
	var best *panelDial
	bestDist := math.Inf(1)
	for _, d := range p.dials {
		dist := math.Hypot(x-d.spec.X, y-d.spec.Y)
		if dist <= d.spec.Radius*hitSlack && dist < bestDist {
			best, bestDist = d, dist
		}
	}
	if best == nil {
		return "", false
	}
	return best.spec.Name, true
}

// Press starts a gesture for pointer at screen point (x, y). If name is
// empty the dial is found by hit testing. The dial is captured by pointer
// only if the press lands on its indicator; the returned bool reports that.
func (p *Panel) Press(pointer int, name string, x, y float64) (string, bool, error) {
	if held, ok := p.captures[pointer]; ok {
		return held.spec.Name, false, fmt.Errorf("pointer %d: %w", pointer, ErrPointerBusy)
	}

	if name == "" {
		hit, ok := p.HitTest(x, y)
		if !ok {
			return "", false, ErrNoDial
		}
		name = hit
	}
	d, ok := p.byName[name]
	if !ok {
		return name, false, fmt.Errorf("%w: %s", ErrUnknownDial, name)
	}
	if d.held {
		return name, false, fmt.Errorf("%s: %w", name, ErrCaptured)
	}

	armed := d.control.Press(toDial(x, y))
	if armed {
		d.held = true
		d.pointer = pointer
		p.captures[pointer] = d
	}
	p.logger.Debug("Pointer press", "pointer", pointer, "dial", name, "armed", armed)
	return name, armed, nil
}

// Drag feeds a sample to the dial captured by pointer. It reports whether
// a dial accepted the sample.
func (p *Panel) Drag(pointer int, x, y float64) bool {
	d, ok := p.captures[pointer]
	if !ok {
		return false
	}
	d.origin = OriginDrag
	return d.control.Drag(toDial(x, y))
}

// Release ends the gesture of pointer, feeding the final sample to its dial.
func (p *Panel) Release(pointer int, x, y float64) bool {
	d, ok := p.captures[pointer]
	if !ok {
		return false
	}
	d.origin = OriginRelease
	accepted := d.control.Release(toDial(x, y))
	delete(p.captures, pointer)
	d.held = false
	p.logger.Debug("Pointer release", "pointer", pointer, "dial", d.spec.Name, "accepted", accepted)
	return accepted
}

// Cancel drops the gesture of pointer without a final sample, e.g. when the
// pointer's source disconnects mid-drag.
func (p *Panel) Cancel(pointer int) bool {
	d, ok := p.captures[pointer]
	if !ok {
		return false
	}
	d.control.Cancel()
	delete(p.captures, pointer)
	d.held = false
	p.logger.Debug("Pointer cancelled", "pointer", pointer, "dial", d.spec.Name)
	return true
}

// Captures returns the dial held by each active pointer.
func (p *Panel) Captures() map[int]string {
	out := make(map[int]string, len(p.captures))
	for id, d := range p.captures {
		out[id] = d.spec.Name
	}
	return out
}

// Captured returns the dial held by pointer, if any.
func (p *Panel) Captured(pointer int) (string, bool) {
	d, ok := p.captures[pointer]
	if !ok {
		return "", false
	}
	return d.spec.Name, true
}

func (p *Panel) Reset(name string) error {
	d, ok := p.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDial, name)
	}
	d.reset()
	p.logger.Info("Dial reset", "dial", name)
	return nil
}

func (p *Panel) ResetAll() {
	for _, d := range p.dials {
		d.reset()
	}
	p.logger.Info("Panel reset", "dials", len(p.dials))
}

func (p *Panel) State(name string) (DialState, bool) {
	d, ok := p.byName[name]
	if !ok {
		return DialState{}, false
	}
	return d.state(), true
}

// Snapshot returns the state of every dial in configuration order.
func (p *Panel) Snapshot() []DialState {
	out := make([]DialState, 0, len(p.dials))
	for _, d := range p.dials {
		out = append(out, d.state())
	}
	return out
}
