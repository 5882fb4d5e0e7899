package render

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/luciancaetano/lifegrid"
	"github.com/luciancaetano/lifegrid/internal/color"
)

const (
	escape     = "\x1b["
	resetStyle = escape + "0m"
	cellWidth  = 2 // two columns make a roughly square cell
)

// Terminal paints cells onto an ANSI terminal with 24-bit background colors.
// Each update moves the cursor to the cell and repaints only that cell.
type Terminal struct {
	rows int
	cols int
	mu   sync.Mutex
	w    *bufio.Writer
}

// NewTerminal creates a terminal renderer writing to w.
func NewTerminal(w io.Writer, rows, cols int) *Terminal {
	return &Terminal{
		rows: rows,
		cols: cols,
		w:    bufio.NewWriter(w),
	}
}

// Clear erases the screen and draws every cell with the default background.
func (t *Terminal) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.w.WriteString(escape + "2J" + escape + "H")
	for row := 0; row < t.rows; row++ {
		for col := 0; col < t.cols; col++ {
			t.w.WriteString(". ")
		}
		t.w.WriteString("\r\n")
	}
	return t.w.Flush()
}

// SetCell implements lifegrid.CellRenderer
func (t *Terminal) SetCell(row, col int, c lifegrid.HSL) error {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return &lifegrid.LookupError{Row: row, Col: col}
	}

	r, g, b := color.RGB(c)

	t.mu.Lock()
	defer t.mu.Unlock()

	// cursor positions are 1-based
	fmt.Fprintf(t.w, "%s%d;%dH", escape, row+1, col*cellWidth+1)
	fmt.Fprintf(t.w, "%s48;2;%d;%d;%dm  %s", escape, r, g, b, resetStyle)
	// park the cursor below the board
	fmt.Fprintf(t.w, "%s%d;1H", escape, t.rows+1)
	return t.w.Flush()
}
