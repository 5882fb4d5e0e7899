package websocket

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/lifegrid"
)

var _ lifegrid.Watcher = (*Watcher)(nil)

// Watcher implements the lifegrid.Watcher interface
type Watcher struct {
	id           string
	url          string
	conn         *websocket.Conn
	ctx          context.Context
	cancel       context.CancelFunc
	frames       chan string
	mu           sync.RWMutex
	closed       bool
	readTimeout  time.Duration
	rateLimiter  *rate.Limiter // Rate limiter for inbound frames
	onDisconnect OnDisconnectFn
	logger       *log.Logger
	done         chan struct{}
}

// Dial connects to the feed at cfg.URL and starts delivering its text frames.
//
// The returned watcher owns two goroutines: a read pump feeding Frames() and a
// ping pump keeping the connection alive. Both stop when the connection ends.
func Dial(ctx context.Context, cfg *WatcherConfig) (*Watcher, error) {
	c := cfg.withDefaults()

	dialer := &websocket.Dialer{
		HandshakeTimeout: c.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.URL, c.Header)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", lifegrid.ErrFailedToDial, c.URL, err)
	}

	w := newWatcher(conn, &c)

	// Call onConnect before the pumps start so no frame is delivered ahead of it
	if c.OnConnect != nil {
		c.OnConnect(w)
	}

	go w.readPump()
	go w.pingPump()

	return w, nil
}

func newWatcher(conn *websocket.Conn, cfg *WatcherConfig) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		id:           uuid.New().String(),
		url:          cfg.URL,
		conn:         conn,
		ctx:          ctx,
		cancel:       cancel,
		frames:       make(chan string, frameBufferSize),
		closed:       false,
		readTimeout:  cfg.ReadTimeout,
		rateLimiter:  cfg.RateLimitConfig.limiter(),
		onDisconnect: cfg.OnDisconnect,
		logger:       cfg.Logger,
		done:         make(chan struct{}),
	}
}

// ID returns a unique identifier for the connection
func (w *Watcher) ID() string {
	return w.id
}

// URL returns the feed endpoint
func (w *Watcher) URL() string {
	return w.url
}

// Context returns the connection's lifecycle context
func (w *Watcher) Context() context.Context {
	return w.ctx
}

// Frames returns the channel of inbound text frames.
// It is closed when the connection ends; frames already buffered stay readable.
func (w *Watcher) Frames() <-chan string {
	return w.frames
}

// Done is closed once the read pump has exited and OnDisconnect has run.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close closes the connection
func (w *Watcher) Close(ctx context.Context) error {
	return w.CloseWithCode(ctx, websocket.CloseNormalClosure, "")
}

// CloseWithCode closes the connection with a close code and optional reason
func (w *Watcher) CloseWithCode(ctx context.Context, code int, reason string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	// Send close message; WriteControl may run concurrently with the pumps
	deadline := time.Now().Add(time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)

	w.cancel()
	return w.conn.Close()
}

// IsAlive returns true if the connection is still active
func (w *Watcher) IsAlive() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.closed && w.ctx.Err() == nil
}

// waitRateLimit blocks until the limiter admits one more frame.
// Returns false if the watcher was closed while waiting.
func (w *Watcher) waitRateLimit() bool {
	if w.rateLimiter == nil {
		// Rate limiting disabled
		return true
	}
	return w.rateLimiter.Wait(w.ctx) == nil
}

// readPump pumps text frames from the websocket connection to the frames channel
func (w *Watcher) readPump() {
	defer func() {
		w.mu.Lock()
		voluntary := w.closed
		w.closed = true
		w.mu.Unlock()

		w.cancel()
		w.conn.Close()
		close(w.frames)

		if w.onDisconnect != nil {
			w.onDisconnect(w, voluntary)
		}
		close(w.done)
	}()

	// Set read deadline to prevent indefinite blocking
	w.conn.SetReadDeadline(time.Now().Add(w.readTimeout))

	// Set pong handler to reset read deadline on pong
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(w.readTimeout))
		return nil
	})

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && w.IsAlive() {
				w.logger.Printf("Unexpected WebSocket close error: watcher_id=%s url=%s: %v", w.id, w.url, err)
			}
			return
		}

		// Reset read deadline after successful read
		w.conn.SetReadDeadline(time.Now().Add(w.readTimeout))

		if messageType != websocket.TextMessage {
			w.logger.Printf("Warn: ignoring binary frame of %d bytes watcher_id=%s", len(data), w.id)
			continue
		}

		if !w.waitRateLimit() {
			return
		}

		select {
		case w.frames <- string(data):
		case <-w.ctx.Done():
			return
		}
	}
}

// pingPump keeps the connection alive by pinging at 9/10 of the read timeout
func (w *Watcher) pingPump() {
	period := w.readTimeout * 9 / 10
	if period <= 0 {
		period = w.readTimeout
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := w.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case <-w.ctx.Done():
			return
		}
	}
}
