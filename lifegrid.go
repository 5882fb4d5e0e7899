package lifegrid

import (
	"context"
	"fmt"
)

// HSL is a color in the HSL model. Saturation and Lightness are percentages.
type HSL struct {
	Hue        int
	Saturation int
	Lightness  int
}

// String renders the color in CSS notation, for example "hsl(20, 100%, 25%)".
func (c HSL) String() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.Hue, c.Saturation, c.Lightness)
}

// CellRenderer is the capability to paint one cell of the grid.
//
// Implementations own the cells. A cell that does not exist must be reported
// as a *LookupError so callers can tell it apart from a rendering failure.
//
// Example usage:
//
//	grid := watch.NewGrid(32, 32)
//	if err := grid.SetCell(0, 0, lifegrid.HSL{Hue: 20, Saturation: 100, Lightness: 25}); err != nil {
//	    log.Printf("paint failed: %v", err)
//	}
type CellRenderer interface {
	// SetCell sets the background color of the cell at (row, col).
	SetCell(row, col int, color HSL) error
}

// FrameSource delivers text frames in the order they were received.
//
// The channel is closed when the source is exhausted or its connection ends.
type FrameSource interface {
	Frames() <-chan string
}

// Watcher is a client-side connection to a feed endpoint that publishes
// cell updates as text frames.
//
// Example usage:
//
//	cfg := watch.NewConfig("ws://localhost:8000/watcher/", watch.DefaultRateLimitConfig(), nil, nil)
//	w, err := watch.Dial(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close(ctx)
//
//	colorizer, done := watch.Attach(ctx, w, watch.NewGrid(32, 32))
type Watcher interface {
	FrameSource

	// ID returns a unique identifier for this connection.
	//
	// The ID is generated when the connection is established and remains
	// constant for its lifetime.
	ID() string

	// URL returns the endpoint the watcher is connected to.
	URL() string

	// Context returns the connection's lifecycle context.
	//
	// The context is cancelled when the connection closes, for any reason.
	Context() context.Context

	// Close closes the connection gracefully.
	//
	// This is equivalent to calling CloseWithCode with websocket.CloseNormalClosure.
	Close(ctx context.Context) error

	// CloseWithCode closes the connection with a specific WebSocket close code and optional reason.
	CloseWithCode(ctx context.Context, code int, reason string) error

	// IsAlive returns true if the connection is still active.
	IsAlive() bool
}
