// Package lifegrid colors the cells of a Game of Life grid from a stream of text frames.
//
// Each frame announces the state of one cell at one generation. The colorizer decodes
// the frame, derives a color from the generation counter and the liveness bit, and
// paints the addressed cell through a CellRenderer. Frames may come from a WebSocket
// feed, a RabbitMQ queue or a local simulation.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/lifegrid/watch"
//	)
//
//	cfg := watch.NewConfig("ws://localhost:8000/watcher/", watch.DefaultRateLimitConfig(), nil, nil)
//	w, err := watch.Dial(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close(ctx)
//
//	grid := watch.NewGrid(32, 32)
//	colorizer, done := watch.Attach(ctx, w, grid)
//	<-done
//	log.Printf("stats: %+v", colorizer.Stats())
//
// # Frame Format
//
// Frames are four whitespace-separated tokens:
//
//	<step:int> <row:int> <col:int> <state:binary-digit>
//
// For example "3 5 7 1" is step 3, row 5, column 7, alive.
//
// # Color Rule
//
//	hue = (step * 20) mod 256
//	lum = 25 if state != 0 else 95
//	color = hsl(hue, 100%, lum%)
//
// # Failure Policy
//
//   - Malformed frames produce a *ParseError; they are logged and skipped
//   - Frames for unknown cells produce a *LookupError; the cell is not painted
//   - Neither stops the receive loop; both are counted in colorizer stats
//
// # Rate Limiting
//
// The watcher applies a token bucket to inbound frames. Over-limit frames are
// delayed, not dropped, so every cell update is applied in order:
//
//	// Default: 4096 frames/second, burst 8192
//	rateLimitConfig := watch.DefaultRateLimitConfig()
//
//	// Disabled
//	rateLimitConfig := watch.NoRateLimit()
//
// # Keepalive
//
//   - Read timeout: 60s by default, reset on every frame and pong
//   - Ping every 9/10 of the read timeout
//   - 256-frame buffer per watcher
package lifegrid
