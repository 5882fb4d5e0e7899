package colorizer

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/luciancaetano/lifegrid"
	"github.com/luciancaetano/lifegrid/internal/color"
	"github.com/luciancaetano/lifegrid/internal/message"
)

// maxTrackedMisses bounds the set of cells whose first miss has been logged.
const maxTrackedMisses = 1024

// Stats counts what happened to the frames a Colorizer has seen.
type Stats struct {
	Frames       uint64
	Applied      uint64
	ParseErrors  uint64
	LookupMisses uint64
	RenderErrors uint64
}

// Option configures a Colorizer
type Option func(*Colorizer)

// WithLogger sets the logger used for skipped frames. Defaults to log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(c *Colorizer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVerbose logs every lookup miss instead of only the first one per cell.
func WithVerbose(verbose bool) Option {
	return func(c *Colorizer) {
		c.verbose = verbose
	}
}

// Colorizer applies cell updates to a renderer.
//
// Frames are handled one at a time in arrival order. A bad frame is logged and
// skipped; it never stops the receive loop.
type Colorizer struct {
	renderer lifegrid.CellRenderer
	logger   *log.Logger
	verbose  bool

	frames       atomic.Uint64
	applied      atomic.Uint64
	parseErrors  atomic.Uint64
	lookupMisses atomic.Uint64
	renderErrors atomic.Uint64

	missedMu sync.Mutex
	missed   map[string]struct{}
}

// New creates a Colorizer painting onto renderer.
func New(renderer lifegrid.CellRenderer, opts ...Option) *Colorizer {
	c := &Colorizer{
		renderer: renderer,
		logger:   log.Default(),
		missed:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle decodes one frame and paints the addressed cell.
//
// It returns a *lifegrid.ParseError for a malformed frame, a *lifegrid.LookupError
// when the renderer does not own the cell, or the renderer's own error.
func (c *Colorizer) Handle(frame string) error {
	c.frames.Add(1)

	u, err := message.Parse(frame)
	if err != nil {
		c.parseErrors.Add(1)
		return err
	}

	if err := c.renderer.SetCell(u.Row, u.Col, color.For(u.Step, u.Alive())); err != nil {
		var lerr *lifegrid.LookupError
		if errors.As(err, &lerr) {
			c.lookupMisses.Add(1)
		} else {
			c.renderErrors.Add(1)
		}
		return err
	}

	c.applied.Add(1)
	return nil
}

// Run handles frames from src until the source closes its channel or ctx is done.
// It returns nil when the source is exhausted and ctx.Err() on cancellation.
func (c *Colorizer) Run(ctx context.Context, src lifegrid.FrameSource) error {
	frames := src.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if err := c.Handle(frame); err != nil {
				c.report(frame, err)
			}
		}
	}
}

// Stats returns a snapshot of the counters.
func (c *Colorizer) Stats() Stats {
	return Stats{
		Frames:       c.frames.Load(),
		Applied:      c.applied.Load(),
		ParseErrors:  c.parseErrors.Load(),
		LookupMisses: c.lookupMisses.Load(),
		RenderErrors: c.renderErrors.Load(),
	}
}

func (c *Colorizer) report(frame string, err error) {
	var perr *lifegrid.ParseError
	var lerr *lifegrid.LookupError
	switch {
	case errors.As(err, &perr):
		c.logger.Printf("Warn: skipping frame: %v", perr)
	case errors.As(err, &lerr):
		if c.firstMiss(lerr) || c.verbose {
			c.logger.Printf("Warn: no cell for frame %q: %v", frame, lerr)
		}
	default:
		c.logger.Printf("Failed to render frame %q: %v", frame, err)
	}
}

func (c *Colorizer) firstMiss(lerr *lifegrid.LookupError) bool {
	key := lerr.Error()

	c.missedMu.Lock()
	defer c.missedMu.Unlock()
	if _, seen := c.missed[key]; seen || len(c.missed) >= maxTrackedMisses {
		return false
	}
	c.missed[key] = struct{}{}
	return true
}
