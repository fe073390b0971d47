package main

import (
	"testing"

	"opticsbench/panel"
)

func TestView_CellRoundTrip(t *testing.T) {
	v := newView(80, 25, panel.Config{Width: 720, Height: 480})
	for _, c := range [][2]int{{0, 0}, {79, 23}, {40, 12}} {
		x, y := v.toPanel(c[0], c[1])
		col, row, ok := v.toCell(x, y)
		if !ok || col != c[0] || row != c[1] {
			t.Errorf("cell %v: round trip gave (%d,%d,%v)", c, col, row, ok)
		}
	}
}

func TestView_StatusRowIsOutsidePanel(t *testing.T) {
	v := newView(40, 21, panel.Config{Width: 400, Height: 200})
	if _, _, ok := v.toCell(100, 200); ok {
		t.Errorf("expected the bottom edge to map outside the panel rows")
	}
	if _, _, ok := v.toCell(-1, 10); ok {
		t.Errorf("expected negative x to be outside")
	}
	if col, row, ok := v.toCell(399.9, 199.9); !ok || col != 39 || row != 19 {
		t.Errorf("expected last panel cell, got (%d,%d,%v)", col, row, ok)
	}
}

func TestStopFrequency(t *testing.T) {
	if stopFrequency(0) != 440 {
		t.Errorf("expected A4 for stop 0, got %v", stopFrequency(0))
	}
	if f := stopFrequency(12); f < 879.99 || f > 880.01 {
		t.Errorf("expected one octave up at stop 12, got %v", f)
	}
}
