package main

import (
	"math"

	"opticsbench/panel"
)

// view maps terminal cells onto panel coordinates. The bottom row is kept
// for the status line.
type view struct {
	cols, rows    int
	width, height float64
}

func newView(cols, rows int, cfg panel.Config) view {
	return view{cols: max(cols, 1), rows: max(rows, 2), width: float64(cfg.Width), height: float64(cfg.Height)}
}

func (v view) panelRows() int { return v.rows - 1 }

// toPanel returns the panel point at the centre of a cell.
func (v view) toPanel(col, row int) (float64, float64) {
	x := (float64(col) + 0.5) * v.width / float64(v.cols)
	y := (float64(row) + 0.5) * v.height / float64(v.panelRows())
	return x, y
}

// toCell returns the cell containing a panel point.
func (v view) toCell(x, y float64) (int, int, bool) {
	col := int(math.Floor(x * float64(v.cols) / v.width))
	row := int(math.Floor(y * float64(v.panelRows()) / v.height))
	if col < 0 || col >= v.cols || row < 0 || row >= v.panelRows() {
		return 0, 0, false
	}
	return col, row, true
}
