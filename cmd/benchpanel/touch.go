package main

import "math"

// TouchAxis is the raw range a touch controller reports on one axis.
type TouchAxis struct {
	Min int32
	Max int32
}

func (a TouchAxis) scale(raw int32, size int) float64 {
	// Subtract as float64: int32 differences overflow on wide ranges.
	span := float64(a.Max) - float64(a.Min)
	if span <= 0 {
		return 0
	}
	f := (float64(raw) - float64(a.Min)) / span
	f = math.Max(0, math.Min(1, f))
	return f * float64(size)
}

// touchContact is the per-device state between two SYN_REPORT frames.
type touchContact struct {
	rawX, rawY int32
	haveX      bool
	haveY      bool
	touching   bool
	down       bool
	moved      bool
}

// touchTranslator turns single-touch evdev frames into pointer events. Each
// device drives one pointer, touchPointerBase+device. Only the first
// contact of multi-touch panels is tracked.
type touchTranslator struct {
	axisX, axisY  TouchAxis
	width, height int
	contacts      map[int]*touchContact
}

func newTouchTranslator(axisX, axisY TouchAxis, width, height int) *touchTranslator {
	return &touchTranslator{
		axisX:    axisX,
		axisY:    axisY,
		width:    width,
		height:   height,
		contacts: make(map[int]*touchContact),
	}
}

// translate consumes one input event. It returns a pointer event when the
// event completes a frame that changes the gesture.
func (t *touchTranslator) translate(ev deviceEvent) (Event, bool) {
	c, ok := t.contacts[ev.Device]
	if !ok {
		c = &touchContact{}
		t.contacts[ev.Device] = c
	}

	switch ev.Type {
	case EV_ABS:
		switch ev.Code {
		case ABS_X, ABS_MT_POSITION_X:
			if !c.haveX || c.rawX != ev.Value {
				c.moved = true
			}
			c.rawX, c.haveX = ev.Value, true
		case ABS_Y, ABS_MT_POSITION_Y:
			if !c.haveY || c.rawY != ev.Value {
				c.moved = true
			}
			c.rawY, c.haveY = ev.Value, true
		}
		return nil, false

	case EV_KEY:
		if ev.Code == BTN_TOUCH {
			switch ev.Value {
			case evValuePress:
				c.touching = true
			case evValueRelease:
				c.touching = false
			}
		}
		return nil, false

	case EV_SYN:
		if ev.Code != SYN_REPORT {
			return nil, false
		}
		return t.frame(ev.Device, c)
	}
	return nil, false
}

func (t *touchTranslator) frame(device int, c *touchContact) (Event, bool) {
	moved := c.moved
	c.moved = false

	if !c.haveX || !c.haveY {
		return nil, false
	}
	pointer := touchPointerBase + device
	x := t.axisX.scale(c.rawX, t.width)
	y := t.axisY.scale(c.rawY, t.height)

	switch {
	case c.touching && !c.down:
		c.down = true
		return PointerPress{Pointer: pointer, X: x, Y: y}, true
	case c.touching && moved:
		return PointerDrag{Pointer: pointer, X: x, Y: y}, true
	case !c.touching && c.down:
		c.down = false
		return PointerRelease{Pointer: pointer, X: x, Y: y}, true
	}
	return nil, false
}
