package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/luciancaetano/lifegrid"
	"github.com/luciancaetano/lifegrid/watch"
)

type options struct {
	url      string
	amqpURL  string
	queue    string
	size     int
	pattern  string
	noCenter bool
	noWrap   bool
	speed    float64
	steps    int
	rate     float64
	burst    int
	verbose  bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.url, "url", "", "feed endpoint to watch, e.g. ws://localhost:8000/watcher/")
	flag.StringVar(&o.amqpURL, "amqp", "", "RabbitMQ URL to consume frames from (default: local simulation)")
	flag.StringVar(&o.queue, "queue", "", "RabbitMQ queue carrying frames (default: $RABBITMQ_QUEUE or cells)")
	flag.IntVar(&o.size, "size", 32, "the size of the grid")
	flag.StringVar(&o.pattern, "pattern", "", "initial state of the local simulation")
	flag.BoolVar(&o.noCenter, "no-center", false, "do not center the pattern in the grid")
	flag.BoolVar(&o.noWrap, "no-wrap", false, "do not wrap around the grid")
	flag.Float64Var(&o.speed, "speed", 1, "maximum number of steps per second of the local simulation")
	flag.IntVar(&o.steps, "steps", 0, "number of steps of the local simulation, 0 runs forever")
	flag.Float64Var(&o.rate, "rate", 4096, "maximum frames per second accepted from the feed, 0 disables")
	flag.IntVar(&o.burst, "burst", 8192, "frame burst accepted from the feed")
	flag.BoolVar(&o.verbose, "v", false, "log every frame addressed to a missing cell")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// keep log output out of the painted board
	logFile, err := os.CreateTemp("", "lifewatch-*.log")
	if err != nil {
		log.Fatalf("Failed to create log file: %v", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)

	src, closeSrc, err := openSource(ctx, o, logger)
	if err != nil {
		log.Fatalf("Failed to open frame source: %v", err)
	}
	defer closeSrc()

	term := watch.NewTerminal(os.Stdout, o.size, o.size)
	if err := term.Clear(); err != nil {
		log.Fatalf("Failed to draw the board: %v", err)
	}

	colorizer, done := watch.Attach(ctx, src, term, watch.WithLogger(logger), watch.WithVerbose(o.verbose))
	if err := <-done; err != nil && ctx.Err() == nil {
		log.Printf("Watch ended: %v", err)
	}

	stats := colorizer.Stats()
	fmt.Printf("frames=%d applied=%d parse_errors=%d lookup_misses=%d render_errors=%d log=%s\n",
		stats.Frames, stats.Applied, stats.ParseErrors, stats.LookupMisses, stats.RenderErrors, logFile.Name())
}

// openSource picks the WebSocket feed, the broker queue or a local simulation
func openSource(ctx context.Context, o options, logger *log.Logger) (lifegrid.FrameSource, func(), error) {
	switch {
	case o.url != "" && o.amqpURL != "":
		return nil, nil, errors.New("-url and -amqp are mutually exclusive")

	case o.url != "":
		rateLimitConfig := watch.NoRateLimit()
		if o.rate > 0 {
			rateLimitConfig = &watch.RateLimitConfig{
				MessagesPerSecond: rate.Limit(o.rate),
				Burst:             o.burst,
				Enabled:           true,
			}
		}

		cfg := watch.NewConfig(o.url, rateLimitConfig, func(w lifegrid.Watcher) {
			logger.Printf("Watcher connected: ID=%s, URL=%s", w.ID(), w.URL())
		}, func(w lifegrid.Watcher, voluntary bool) {
			logger.Printf("Watcher disconnected: ID=%s, Voluntary=%v", w.ID(), voluntary)
		})
		cfg.Logger = logger

		w, err := watch.Dial(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return w, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			w.Close(closeCtx)
		}, nil

	case o.amqpURL != "":
		cfg := watch.DefaultAMQPConfig()
		cfg.URL = o.amqpURL
		if o.queue != "" {
			cfg.Queue = o.queue
		}
		cfg.Logger = logger

		conn, err := watch.ConnectAMQP(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		src, err := watch.OpenAMQP(conn, cfg)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		if err := src.Start(ctx); err != nil {
			src.Close()
			conn.Close()
			return nil, nil, err
		}
		return src, func() {
			src.Close()
			conn.Close()
		}, nil

	default:
		board, err := initialBoard(o)
		if err != nil {
			return nil, nil, err
		}
		sim := watch.NewSimulation(board, &watch.SimulationConfig{
			Wrap:  !o.noWrap,
			Speed: o.speed,
			Steps: o.steps,
		})
		if err := sim.Start(ctx); err != nil {
			return nil, nil, err
		}
		return sim, func() {}, nil
	}
}

func initialBoard(o options) (watch.Board, error) {
	if o.pattern == "" {
		// one cell in four starts alive
		return watch.RandomBoard(o.size, 0.25, rand.New(rand.NewSource(time.Now().UnixNano()))), nil
	}

	f, err := os.Open(o.pattern)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return watch.ParsePattern(f, o.size, !o.noCenter)
}
