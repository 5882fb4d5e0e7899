package message

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luciancaetano/lifegrid"
)

const (
	fieldCount   = 4
	maxFrameSize = 256 // 4 decimal integers and separators fit well within this
)

// Update is one decoded frame: the state of the cell at (Row, Col) at generation Step.
type Update struct {
	Step  uint64
	Row   int
	Col   int
	State uint64
}

// Alive reports whether the state bit is set. Any nonzero state counts as alive.
func (u Update) Alive() bool {
	return u.State != 0
}

// CellID returns the composite "row-col" identifier of the addressed cell.
func (u Update) CellID() string {
	return strconv.Itoa(u.Row) + "-" + strconv.Itoa(u.Col)
}

// Parse decodes a "<step> <row> <col> <state>" frame.
// Tokens may be separated by any amount of whitespace. The state is read in base 2.
func Parse(frame string) (Update, error) {
	if len(frame) > maxFrameSize {
		return Update{}, &lifegrid.ParseError{
			Frame:  frame[:maxFrameSize],
			Reason: fmt.Sprintf("%s: %d bytes exceeds maximum %d", lifegrid.ErrFrameTooLong, len(frame), maxFrameSize),
		}
	}

	fields := strings.Fields(frame)
	if len(fields) != fieldCount {
		return Update{}, &lifegrid.ParseError{
			Frame:  frame,
			Reason: fmt.Sprintf("%s: got %d, want %d", lifegrid.ErrWrongFieldCount, len(fields), fieldCount),
		}
	}

	step, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Update{}, &lifegrid.ParseError{Frame: frame, Reason: lifegrid.ErrInvalidStep, Err: err}
	}

	row, err := strconv.Atoi(fields[1])
	if err != nil {
		return Update{}, &lifegrid.ParseError{Frame: frame, Reason: lifegrid.ErrInvalidRow, Err: err}
	}

	col, err := strconv.Atoi(fields[2])
	if err != nil {
		return Update{}, &lifegrid.ParseError{Frame: frame, Reason: lifegrid.ErrInvalidCol, Err: err}
	}

	state, err := strconv.ParseUint(fields[3], 2, 64)
	if err != nil {
		return Update{}, &lifegrid.ParseError{Frame: frame, Reason: lifegrid.ErrInvalidState, Err: err}
	}

	return Update{Step: step, Row: row, Col: col, State: state}, nil
}

// Format encodes an update as a frame. The state is written as a single binary digit.
func Format(u Update) string {
	state := 0
	if u.Alive() {
		state = 1
	}
	return fmt.Sprintf("%d %d %d %d", u.Step, u.Row, u.Col, state)
}
