package panel

import "strconv"

// readout maps a control position to the instrument reading shown next to
// the dial.
//
// Continuous dials are linear in the unwrapped angle: the full travel of
// ±360*maxRotations degrees spans the configured range, with the midpoint
// at 0°. Discrete dials read values[index].
type readout struct {
	m, b      float64
	values    []float64
	precision int
}

func newReadout(spec *DialSpec) readout {
	r := readout{precision: spec.Precision}
	switch spec.Kind {
	case KindContinuous:
		lo, hi := spec.Range[0], spec.Range[1]
		r.m = (hi - lo) / (720 * float64(spec.maxRotations()))
		r.b = (lo + hi) / 2
	case KindDiscrete:
		r.values = append([]float64(nil), spec.Values...)
	}
	return r
}

func (r readout) fromDegrees(deg float64) float64 {
	return r.m*deg + r.b
}

func (r readout) fromIndex(i int) float64 {
	return r.values[i]
}

func (r readout) format(v float64) string {
	return strconv.FormatFloat(v, 'f', r.precision, 64)
}
