package panel

import (
	"fmt"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"

	"opticsbench/dial"
)

// Render draws the panel as a PNG: one ring per dial, a needle at the
// displayed indicator angle, stop ticks for discrete dials, and the label
// and reading as text. States are matched to dials by name; dials without
// a state are drawn at rest.
func Render(w io.Writer, cfg Config, states []DialState) error {
	byName := make(map[string]DialState, len(states))
	for _, st := range states {
		byName[st.Name] = st
	}

	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetRGB(0.08, 0.08, 0.1)
	dc.Clear()

	for i := range cfg.Dials {
		spec := &cfg.Dials[i]
		s, err := spec.sampler()
		if err != nil {
			return fmt.Errorf("dial %s: %w", spec.Name, err)
		}
		st, ok := byName[spec.Name]
		if !ok {
			st = DialState{Label: spec.Label, Unit: spec.Unit}
		}

		ray := func(a, r float64) (float64, float64) { return rayPoint(s, spec, a, r) }

		dc.SetRGB(0.85, 0.85, 0.85)
		dc.SetLineWidth(2)
		dc.DrawCircle(spec.X, spec.Y, spec.Radius)
		dc.Stroke()

		if spec.Kind == KindDiscrete {
			if table, err := spec.stopTable(); err == nil {
				dc.SetLineWidth(1)
				for _, a := range table.Stops() {
					x0, y0 := ray(a, spec.Radius)
					x1, y1 := ray(a, spec.Radius*1.12)
					dc.DrawLine(x0, y0, x1, y1)
				}
				dc.Stroke()
			}
		}

		if st.Armed {
			dc.SetRGB(1, 0.6, 0.1)
		} else {
			dc.SetRGB(1, 0.9, 0)
		}
		dc.SetLineWidth(3)
		x, y := ray(st.Indicator, spec.Radius*0.85)
		dc.DrawLine(spec.X, spec.Y, x, y)
		dc.Stroke()

		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(spec.Label, spec.X, spec.Y-spec.Radius-14, 0.5, 0.5)
		text := st.Text
		if text != "" && spec.Unit != "" {
			text += " " + spec.Unit
		}
		dc.DrawStringAnchored(text, spec.X, spec.Y+spec.Radius+16, 0.5, 0.5)
	}

	return png.Encode(w, dc.Image())
}

// Ray returns the screen point at distance r from the dial centre along dial
// angle a.
func (d *DialSpec) Ray(a, r float64) (x, y float64, err error) {
	s, err := d.sampler()
	if err != nil {
		return 0, 0, err
	}
	x, y = rayPoint(s, d, a, r)
	return x, y, nil
}

func rayPoint(s dial.Sampler, d *DialSpec, a, r float64) (float64, float64) {
	rad := gg.Radians(s.Cartesian(a))
	return d.X + r*math.Cos(rad), d.Y - r*math.Sin(rad)
}
