package life

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/luciancaetano/lifegrid"
	"github.com/luciancaetano/lifegrid/internal/message"
)

const frameBufferSize = 256

// SimulationConfig controls how a Simulation advances.
type SimulationConfig struct {
	// Wrap makes the board a torus
	Wrap bool
	// Speed is the maximum number of steps per second; zero or less is unthrottled
	Speed float64
	// Steps is the number of generations after step 0; zero runs until cancelled
	Steps int
}

// DefaultSimulationConfig returns a wrapping simulation at one step per second
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Wrap:  true,
		Speed: 1,
		Steps: 0,
	}
}

// Simulation runs a board forward and publishes every cell of every
// generation as a frame, the way one worker per cell would report it.
type Simulation struct {
	cfg     SimulationConfig
	limiter *rate.Limiter
	frames  chan string

	mu      sync.Mutex
	board   *Board
	step    uint64
	started bool
}

// NewSimulation creates a simulation starting from board at step 0.
func NewSimulation(board *Board, cfg *SimulationConfig) *Simulation {
	if cfg == nil {
		cfg = DefaultSimulationConfig()
	}

	limit := rate.Inf
	if cfg.Speed > 0 {
		limit = rate.Limit(cfg.Speed)
	}

	return &Simulation{
		cfg:     *cfg,
		limiter: rate.NewLimiter(limit, 1),
		frames:  make(chan string, frameBufferSize),
		board:   board,
	}
}

// Frames implements lifegrid.FrameSource
func (s *Simulation) Frames() <-chan string {
	return s.frames
}

// Board returns the latest published generation and its step.
func (s *Simulation) Board() (*Board, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board, s.step
}

// Start runs the simulation in the background until it has published
// cfg.Steps generations or ctx is done. The frames channel is closed on exit.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New(lifegrid.ErrAlreadyStarted)
	}
	s.started = true

	go s.run(ctx)
	return nil
}

func (s *Simulation) run(ctx context.Context) {
	defer close(s.frames)

	board, _ := s.Board()
	if !s.publish(ctx, 0, board) {
		return
	}

	// spend the initial token so the first step waits a full period
	s.limiter.Allow()

	for step := uint64(1); s.cfg.Steps <= 0 || step <= uint64(s.cfg.Steps); step++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		board = board.Step(s.cfg.Wrap)

		s.mu.Lock()
		s.board, s.step = board, step
		s.mu.Unlock()

		if !s.publish(ctx, step, board) {
			return
		}
	}
}

// publish sends one frame per cell. Returns false if ctx ended first.
func (s *Simulation) publish(ctx context.Context, step uint64, board *Board) bool {
	for row := 0; row < board.Size(); row++ {
		for col := 0; col < board.Size(); col++ {
			u := message.Update{Step: step, Row: row, Col: col}
			if board.Alive(row, col) {
				u.State = 1
			}

			select {
			case s.frames <- message.Format(u):
			case <-ctx.Done():
				return false
			}
		}
	}
	return true
}
