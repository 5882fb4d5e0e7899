package websocket

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/luciancaetano/lifegrid"
)

// newFeedServer starts a WebSocket endpoint that runs handler for every connection
func newFeedServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// drain blocks until the peer goes away
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func sendFrames(conn *websocket.Conn, frames ...string) {
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			return
		}
	}
}

// collect reads n frames or fails after timeout
func collect(t *testing.T, w *Watcher, n int, timeout time.Duration) []string {
	t.Helper()

	got := make([]string, 0, n)
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case f, ok := <-w.Frames():
			if !ok {
				t.Fatalf("frames closed after %d of %d", len(got), n)
			}
			got = append(got, f)
		case <-deadline:
			t.Fatalf("timed out after %d of %d frames", len(got), n)
		}
	}
	return got
}

func testConfig(url string) *WatcherConfig {
	cfg := DefaultWatcherConfig(url)
	cfg.HandshakeTimeout = 5 * time.Second
	cfg.Logger = log.New(&bytes.Buffer{}, "", 0)
	return cfg
}

// TestWatcherNoLeak verifies that the pumps exit after Close
func TestWatcherNoLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		sendFrames(conn, "0 0 0 1")
		drain(conn)
	})
	defer srv.Close()

	w, err := Dial(context.Background(), testConfig(wsURL(srv)))
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}

	collect(t, w, 1, 5*time.Second)

	if err := w.Close(context.Background()); err != nil {
		t.Logf("Close() returned %v", err)
	}

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("read pump did not exit")
	}
}

// TestWatcherDeliversFramesInOrder tests end to end ordering
func TestWatcherDeliversFramesInOrder(t *testing.T) {
	t.Parallel()

	const count = 500
	want := make([]string, count)
	for i := range want {
		want[i] = fmt.Sprintf("%d %d %d %d", i, i%32, i/32, i%2)
	}

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		sendFrames(conn, want...)
		drain(conn)
	})
	defer srv.Close()

	cfg := testConfig(wsURL(srv))
	cfg.RateLimitConfig = NoRateLimit()

	w, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer w.Close(context.Background())

	got := collect(t, w, count, 5*time.Second)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestWatcherIdentity tests the ID, URL and liveness accessors
func TestWatcherIdentity(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, drain)
	defer srv.Close()

	url := wsURL(srv)
	w, err := Dial(context.Background(), testConfig(url))
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}

	if _, err := uuid.Parse(w.ID()); err != nil {
		t.Errorf("ID %s is not a valid UUID: %v", w.ID(), err)
	}

	if w.URL() != url {
		t.Errorf("URL() = %v, want %v", w.URL(), url)
	}

	if !w.IsAlive() {
		t.Error("new watcher should be alive")
	}

	w.Close(context.Background())

	if w.IsAlive() {
		t.Error("closed watcher should not be alive")
	}

	select {
	case <-w.Context().Done():
	case <-time.After(time.Second):
		t.Error("context was not cancelled on close")
	}

	// Closing twice is a no-op
	if err := w.Close(context.Background()); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}

// TestWatcherDisconnectCallbacks tests voluntary and involuntary disconnects
func TestWatcherDisconnectCallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		serverCloses  bool
		wantVoluntary bool
	}{
		{"local close", false, true},
		{"feed goes away", true, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newFeedServer(t, func(conn *websocket.Conn) {
				sendFrames(conn, "1 0 0 1", "2 0 0 0")
				if tt.serverCloses {
					msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye")
					conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				}
				drain(conn)
			})
			defer srv.Close()

			var mu sync.Mutex
			var calls int
			var voluntary bool

			cfg := testConfig(wsURL(srv))
			cfg.OnDisconnect = func(w lifegrid.Watcher, v bool) {
				mu.Lock()
				calls++
				voluntary = v
				mu.Unlock()
			}

			w, err := Dial(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Dial() failed: %v", err)
			}

			collect(t, w, 2, 5*time.Second)

			if !tt.serverCloses {
				w.Close(context.Background())
			}

			select {
			case <-w.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("watcher did not finish")
			}

			// frames channel is closed once the connection ended
			if _, ok := <-w.Frames(); ok {
				t.Error("frames channel should be closed")
			}

			mu.Lock()
			defer mu.Unlock()
			if calls != 1 {
				t.Errorf("OnDisconnect called %d times, want 1", calls)
			}
			if voluntary != tt.wantVoluntary {
				t.Errorf("voluntary = %v, want %v", voluntary, tt.wantVoluntary)
			}
		})
	}
}

// TestWatcherOnConnect tests that OnConnect runs before any frame is delivered
func TestWatcherOnConnect(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		sendFrames(conn, "1 0 0 1")
		drain(conn)
	})
	defer srv.Close()

	var connectedID string
	cfg := testConfig(wsURL(srv))
	cfg.OnConnect = func(w lifegrid.Watcher) {
		connectedID = w.ID()
		if len(w.Frames()) != 0 {
			t.Error("frames delivered before OnConnect")
		}
	}

	w, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer w.Close(context.Background())

	if connectedID != w.ID() {
		t.Errorf("OnConnect saw ID %q, want %q", connectedID, w.ID())
	}

	collect(t, w, 1, 5*time.Second)
}

// TestWatcherIgnoresBinaryFrames tests that only text frames are delivered
func TestWatcherIgnoresBinaryFrames(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, []byte{0x00, 0x01})
		sendFrames(conn, "5 1 1 1")
		drain(conn)
	})
	defer srv.Close()

	var logs bytes.Buffer
	cfg := testConfig(wsURL(srv))
	cfg.Logger = log.New(&logs, "", 0)

	w, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}

	got := collect(t, w, 1, 5*time.Second)
	if got[0] != "5 1 1 1" {
		t.Errorf("first frame = %q, want %q", got[0], "5 1 1 1")
	}

	w.Close(context.Background())
	<-w.Done()

	if !strings.Contains(logs.String(), "ignoring binary frame") {
		t.Errorf("binary frame not logged: %q", logs.String())
	}
}

// TestWatcherRateLimit tests that over-limit frames are delayed, not dropped
func TestWatcherRateLimit(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, func(conn *websocket.Conn) {
		sendFrames(conn, "0 0 0 1", "1 0 0 1", "2 0 0 1", "3 0 0 1", "4 0 0 1", "5 0 0 1")
		drain(conn)
	})
	defer srv.Close()

	cfg := testConfig(wsURL(srv))
	cfg.RateLimitConfig = &RateLimitConfig{
		MessagesPerSecond: 50,
		Burst:             1,
		Enabled:           true,
	}

	w, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer w.Close(context.Background())

	start := time.Now()
	got := collect(t, w, 6, 5*time.Second)
	elapsed := time.Since(start)

	if got[5] != "5 0 0 1" {
		t.Errorf("last frame = %q, want %q", got[5], "5 0 0 1")
	}

	// five waits of 20ms after the first token
	if elapsed < 80*time.Millisecond {
		t.Errorf("6 frames at 50/s took %v, want at least 80ms", elapsed)
	}
}

// TestDialFailure tests that dial errors are returned, not fatal
func TestDialFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	_, err := Dial(context.Background(), testConfig(url))
	if err == nil {
		t.Fatal("Dial() to a closed server should fail")
	}

	if !strings.Contains(err.Error(), lifegrid.ErrFailedToDial) {
		t.Errorf("error %q does not mention %q", err, lifegrid.ErrFailedToDial)
	}
}

// TestDialContextCancelled tests that a cancelled context aborts the handshake
func TestDialContextCancelled(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, drain)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Dial(ctx, testConfig(wsURL(srv))); err == nil {
		t.Error("Dial() with cancelled context should fail")
	}
}
