package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"opticsbench/dial"
	"opticsbench/panel"
)

// mousePointer is the only pointer a terminal has.
const mousePointer = 0

type app struct {
	screen tcell.Screen
	panel  *panel.Panel
	cfg    panel.Config
	view   view
	sound  *clicker
	logger *slog.Logger

	down   bool
	status string
}

func newApp(screen tcell.Screen, cfg panel.Config, sound *clicker, logger *slog.Logger) (*app, error) {
	a := &app{screen: screen, cfg: cfg, sound: sound, logger: logger}
	p, err := panel.New(cfg, panel.Hooks{OnValue: a.onValue}, logger)
	if err != nil {
		return nil, err
	}
	a.panel = p
	a.view = newView(80, 24, cfg)
	if screen != nil {
		cols, rows := screen.Size()
		a.view = newView(cols, rows, cfg)
	}
	a.status = "drag a dial by its needle; r resets, q quits"
	return a, nil
}

func (a *app) onValue(v panel.ValueChange) {
	if v.Origin == panel.OriginReset {
		return
	}
	if v.Index >= 0 && v.Changed {
		a.sound.stop(v.Index)
	}
	a.status = fmt.Sprintf("%s = %s", v.Dial, v.Text)
}

// pointer feeds one mouse report, in cells, to the panel.
func (a *app) pointer(col, row int, pressed bool) {
	x, y := a.view.toPanel(col, row)
	switch {
	case pressed && !a.down:
		a.down = true
		name, armed, err := a.panel.Press(mousePointer, "", x, y)
		switch {
		case errors.Is(err, panel.ErrNoDial):
		case err != nil:
			a.status = err.Error()
		case !armed:
			a.status = name + ": grab the needle to turn"
			a.sound.miss()
		default:
			a.status = "turning " + name
		}
	case pressed:
		a.panel.Drag(mousePointer, x, y)
	case a.down:
		a.down = false
		a.panel.Release(mousePointer, x, y)
	}
}

func (a *app) reset() {
	a.panel.Cancel(mousePointer)
	a.down = false
	a.panel.ResetAll()
	a.status = "panel reset"
}

// handle processes one terminal event and reports whether to keep running.
func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				a.reset()
			}
		}

	case *tcell.EventMouse:
		col, row := ev.Position()
		a.pointer(col, row, ev.Buttons()&tcell.Button1 != 0)

	case *tcell.EventResize:
		cols, rows := a.screen.Size()
		a.view = newView(cols, rows, a.cfg)
		a.screen.Sync()
	}
	return true
}

func (a *app) run() {
	a.draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		if !a.handle(ev) {
			return
		}
		a.draw()
	}
}

var (
	ringStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	needleStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	heldStyle   = tcell.StyleDefault.Foreground(tcell.ColorOrange).Bold(true)
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	statusStyle = tcell.StyleDefault.Reverse(true)
)

func (a *app) draw() {
	a.screen.Clear()

	for i := range a.cfg.Dials {
		spec := &a.cfg.Dials[i]
		st, _ := a.panel.State(spec.Name)

		for deg := -180.0; deg < 180; deg += 6 {
			a.plot(spec, deg, spec.Radius, '·', ringStyle)
		}
		if spec.Kind == panel.KindDiscrete {
			stops := spec.Stops
			if len(stops) == 0 {
				stops = dial.EvenStops(len(spec.Values))
			}
			for _, s := range stops {
				a.plot(spec, s, spec.Radius*1.15, '+', ringStyle)
			}
		}

		style := needleStyle
		if st.Armed {
			style = heldStyle
		}
		for f := 0.0; f < 0.8; f += 0.2 {
			a.plot(spec, st.Indicator, spec.Radius*f, '•', style)
		}
		a.plot(spec, st.Indicator, spec.Radius*0.85, '●', style)

		text := st.Text
		if spec.Unit != "" {
			text += " " + spec.Unit
		}
		a.text(spec.X, spec.Y-spec.Radius*1.35, spec.Label, textStyle)
		a.text(spec.X, spec.Y+spec.Radius*1.35, text, textStyle)
	}

	_, rows := a.screen.Size()
	a.put(0, rows-1, " "+a.status+" ", statusStyle)
	a.screen.Show()
}

func (a *app) plot(spec *panel.DialSpec, deg, r float64, ch rune, style tcell.Style) {
	x, y, err := spec.Ray(deg, r)
	if err != nil {
		return
	}
	if col, row, ok := a.view.toCell(x, y); ok {
		a.screen.SetContent(col, row, ch, nil, style)
	}
}

// text centres s on the cell containing panel point (x, y).
func (a *app) text(x, y float64, s string, style tcell.Style) {
	col, row, ok := a.view.toCell(x, y)
	if !ok {
		return
	}
	a.put(col-len([]rune(s))/2, row, s, style)
}

func (a *app) put(col, row int, s string, style tcell.Style) {
	for _, r := range s {
		a.screen.SetContent(col, row, r, nil, style)
		col++
	}
}
