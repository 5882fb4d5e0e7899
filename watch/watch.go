package watch

import (
	"context"
	"io"
	"log"
	"math/rand"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/luciancaetano/lifegrid"
	"github.com/luciancaetano/lifegrid/internal/amqp"
	"github.com/luciancaetano/lifegrid/internal/colorizer"
	"github.com/luciancaetano/lifegrid/internal/life"
	"github.com/luciancaetano/lifegrid/internal/render"
	"github.com/luciancaetano/lifegrid/internal/websocket"
)

type RateLimitConfig = websocket.RateLimitConfig
type OnConnectFn = websocket.OnConnectFn
type OnDisconnectFn = websocket.OnDisconnectFn
type WatcherConfig = *websocket.WatcherConfig
type Watcher = *websocket.Watcher

type Colorizer = *colorizer.Colorizer
type Stats = colorizer.Stats
type Option = colorizer.Option

type Grid = *render.Grid
type Terminal = *render.Terminal

type Board = *life.Board
type SimulationConfig = life.SimulationConfig
type Simulation = *life.Simulation

type AMQPConfig = *amqp.Config
type AMQPSource = *amqp.Source

// Dial connects a watcher to a feed endpoint.
//
// Example:
//
//	w, err := watch.Dial(ctx, watch.NewConfig("ws://localhost:8000/watcher/", watch.DefaultRateLimitConfig(), nil, nil))
//	if err != nil {
//	    log.Fatalf("Failed to connect: %v", err)
//	}
//	defer w.Close(ctx)
func Dial(ctx context.Context, cfg WatcherConfig) (Watcher, error) {
	return websocket.Dial(ctx, cfg)
}

// NewConfig creates a watcher configuration.
//
// Parameters:
//   - url: The feed endpoint (e.g., "ws://localhost:8000/watcher/")
//   - rateLimitConfig: Inbound rate limiting. Use DefaultRateLimitConfig() or NoRateLimit()
//   - onConnect: Optional callback after the handshake, before any frame. Can be nil.
//   - onDisconnect: Optional callback when the connection ends. Can be nil.
func NewConfig(url string, rateLimitConfig *RateLimitConfig, onConnect OnConnectFn, onDisconnect OnDisconnectFn) WatcherConfig {
	cfg := websocket.DefaultWatcherConfig(url)
	if rateLimitConfig != nil {
		cfg.RateLimitConfig = rateLimitConfig
	}
	cfg.OnConnect = onConnect
	cfg.OnDisconnect = onDisconnect
	return cfg
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return websocket.DefaultRateLimitConfig()
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return websocket.NoRateLimit()
}

// Attach wires a frame source to a renderer and starts colorizing in the background.
//
// The returned channel receives the result of the receive loop exactly once:
// nil when the source closed, ctx.Err() when ctx was cancelled.
//
// Example:
//
//	colorizer, done := watch.Attach(ctx, w, watch.NewGrid(32, 32))
//	if err := <-done; err != nil {
//	    log.Printf("watch ended: %v", err)
//	}
//	log.Printf("applied %d frames", colorizer.Stats().Applied)
func Attach(ctx context.Context, src lifegrid.FrameSource, renderer lifegrid.CellRenderer, opts ...Option) (Colorizer, <-chan error) {
	c := colorizer.New(renderer, opts...)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, src)
	}()
	return c, done
}

// NewColorizer creates a colorizer for callers that drive Handle or Run themselves.
func NewColorizer(renderer lifegrid.CellRenderer, opts ...Option) Colorizer {
	return colorizer.New(renderer, opts...)
}

// WithLogger sets the logger for skipped frames
func WithLogger(logger *log.Logger) Option {
	return colorizer.WithLogger(logger)
}

// WithVerbose logs every lookup miss
func WithVerbose(verbose bool) Option {
	return colorizer.WithVerbose(verbose)
}

// NewGrid returns an in-memory renderer with rows x cols cells
func NewGrid(rows, cols int) Grid {
	return render.NewGrid(rows, cols)
}

// NewTerminal returns an ANSI renderer writing to w
func NewTerminal(w io.Writer, rows, cols int) Terminal {
	return render.NewTerminal(w, rows, cols)
}

// NewBoard returns an empty size x size board
func NewBoard(size int) Board {
	return life.NewBoard(size)
}

// RandomBoard returns a board where each cell is alive with probability density
func RandomBoard(size int, density float64, rnd *rand.Rand) Board {
	return life.Random(size, density, rnd)
}

// ParsePattern reads a plain-text pattern; '.' and ' ' are dead, anything else is alive
func ParsePattern(r io.Reader, size int, center bool) (Board, error) {
	return life.ParsePattern(r, size, center)
}

// DefaultSimulationConfig returns a wrapping simulation at one step per second
func DefaultSimulationConfig() *SimulationConfig {
	return life.DefaultSimulationConfig()
}

// NewSimulation returns a local frame source running board forward
func NewSimulation(board Board, cfg *SimulationConfig) Simulation {
	return life.NewSimulation(board, cfg)
}

// DefaultAMQPConfig returns the broker configuration, honoring RABBITMQ_URL and RABBITMQ_QUEUE
func DefaultAMQPConfig() AMQPConfig {
	return amqp.DefaultConfig()
}

// ConnectAMQP dials the broker with retries
func ConnectAMQP(ctx context.Context, cfg AMQPConfig) (*amqp091.Connection, error) {
	return amqp.Connect(ctx, cfg)
}

// OpenAMQP opens a frame source consuming cfg.Queue on conn
func OpenAMQP(conn *amqp091.Connection, cfg AMQPConfig) (AMQPSource, error) {
	return amqp.Open(conn, cfg)
}
