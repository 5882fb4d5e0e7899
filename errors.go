package lifegrid

import "fmt"

// Standard error messages
const (
	// Frame errors
	ErrWrongFieldCount = "wrong field count"
	ErrInvalidStep     = "invalid step"
	ErrInvalidRow      = "invalid row"
	ErrInvalidCol      = "invalid col"
	ErrInvalidState    = "invalid state"
	ErrFrameTooLong    = "frame too long"

	// Connection errors
	ErrConnectionClosed = "watcher connection is closed"
	ErrContextCancelled = "watcher context cancelled"
	ErrFailedToDial     = "failed to dial feed"
	ErrFailedToConsume  = "failed to consume queue"
	ErrAlreadyStarted   = "source already started"
)

// ParseError reports a frame that does not match "<step> <row> <col> <state>".
type ParseError struct {
	Frame  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s in %q: %v", e.Reason, e.Frame, e.Err)
	}
	return fmt.Sprintf("parse error: %s in %q", e.Reason, e.Frame)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LookupError reports a cell that the renderer does not own.
type LookupError struct {
	Row int
	Col int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("cell %d-%d not found", e.Row, e.Col)
}
