package life

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"
)

// Board is a square Game of Life grid.
type Board struct {
	size  int
	cells []bool
}

// NewBoard creates an empty size x size board.
func NewBoard(size int) *Board {
	if size < 0 {
		size = 0
	}
	return &Board{
		size:  size,
		cells: make([]bool, size*size),
	}
}

// Random creates a board where each cell is alive with probability density.
func Random(size int, density float64, rnd *rand.Rand) *Board {
	b := NewBoard(size)
	for i := range b.cells {
		b.cells[i] = rnd.Float64() < density
	}
	return b
}

// Size returns the number of rows (and columns)
func (b *Board) Size() int {
	return b.size
}

// Alive reports whether the cell is alive. Cells outside the board are dead.
func (b *Board) Alive(row, col int) bool {
	if row < 0 || row >= b.size || col < 0 || col >= b.size {
		return false
	}
	return b.cells[row*b.size+col]
}

// Set sets the state of a cell. Cells outside the board are ignored.
func (b *Board) Set(row, col int, alive bool) {
	if row < 0 || row >= b.size || col < 0 || col >= b.size {
		return
	}
	b.cells[row*b.size+col] = alive
}

// Population returns the number of live cells
func (b *Board) Population() int {
	n := 0
	for _, alive := range b.cells {
		if alive {
			n++
		}
	}
	return n
}

// Neighbors returns the live neighbors of a cell.
// With wrap the board is a torus; without it, cells beyond the edge are dead.
func (b *Board) Neighbors(row, col int, wrap bool) int {
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if wrap {
				r = (r + b.size) % b.size
				c = (c + b.size) % b.size
			}
			if b.Alive(r, c) {
				n++
			}
		}
	}
	return n
}

// Step returns the next generation: a cell is born with exactly 3 live
// neighbors and survives with 2 or 3.
func (b *Board) Step(wrap bool) *Board {
	next := NewBoard(b.size)
	for row := 0; row < b.size; row++ {
		for col := 0; col < b.size; col++ {
			alive := b.Neighbors(row, col, wrap)
			next.cells[row*b.size+col] = alive == 3 || (alive == 2 && b.Alive(row, col))
		}
	}
	return next
}

// String renders the board with '#' for live cells and '.' for dead ones.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < b.size; row++ {
		for col := 0; col < b.size; col++ {
			if b.Alive(row, col) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParsePattern reads a plain-text pattern onto a size x size board.
//
// Each line is a row; '.' and ' ' are dead cells, any other character is alive.
// With center the pattern is placed in the middle of the board, otherwise at the
// top-left corner.
func ParsePattern(r io.Reader, size int, center bool) (*Board, error) {
	var rows []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rows = append(rows, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pattern: %w", err)
	}

	height := len(rows)
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	if height > size {
		return nil, fmt.Errorf("too many rows in pattern: %d > %d, increase size", height, size)
	}
	if width > size {
		return nil, fmt.Errorf("too many columns in pattern: %d > %d, increase size", width, size)
	}

	top, left := 0, 0
	if center {
		top = (size - height) / 2
		left = (size - width) / 2
	}

	b := NewBoard(size)
	for i, row := range rows {
		for j, ch := range []byte(row) {
			if ch != '.' && ch != ' ' {
				b.Set(top+i, left+j, true)
			}
		}
	}
	return b, nil
}
