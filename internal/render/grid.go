package render

import (
	"strconv"
	"sync"

	"github.com/luciancaetano/lifegrid"
)

// Grid is an in-memory CellRenderer. It owns the cells 0 <= row < Rows and
// 0 <= col < Cols; any other address is a *lifegrid.LookupError.
type Grid struct {
	rows  int
	cols  int
	mu    sync.RWMutex
	cells []lifegrid.HSL
	set   []bool
}

// NewGrid creates an empty grid with the given dimensions.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]lifegrid.HSL, rows*cols),
		set:   make([]bool, rows*cols),
	}
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns
func (g *Grid) Cols() int {
	return g.cols
}

// Contains reports whether (row, col) addresses a cell of the grid.
func (g *Grid) Contains(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// SetCell implements lifegrid.CellRenderer
func (g *Grid) SetCell(row, col int, color lifegrid.HSL) error {
	if !g.Contains(row, col) {
		return &lifegrid.LookupError{Row: row, Col: col}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	i := row*g.cols + col
	g.cells[i] = color
	g.set[i] = true
	return nil
}

// Cell returns the color of a cell and whether it has been painted.
func (g *Grid) Cell(row, col int) (lifegrid.HSL, bool) {
	if !g.Contains(row, col) {
		return lifegrid.HSL{}, false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	i := row*g.cols + col
	return g.cells[i], g.set[i]
}

// Snapshot returns the painted cells keyed by their "row-col" identifier.
func (g *Grid) Snapshot() map[string]lifegrid.HSL {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]lifegrid.HSL)
	for i, ok := range g.set {
		if ok {
			out[cellID(i/g.cols, i%g.cols)] = g.cells[i]
		}
	}
	return out
}

func cellID(row, col int) string {
	return strconv.Itoa(row) + "-" + strconv.Itoa(col)
}
