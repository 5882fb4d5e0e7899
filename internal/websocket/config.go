package websocket

import (
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/luciancaetano/lifegrid"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadTimeout      = 60 * time.Second
	frameBufferSize         = 256
)

// OnConnectFn is a callback function that is called when the watcher connects.
// It is called after the WebSocket handshake completes and before the
// read loop starts, so no frame can be missed by work done here.
//
// Note: This function is called synchronously during Dial.
// Avoid long-running operations.
type OnConnectFn = func(w lifegrid.Watcher)

// OnDisconnectFn is a callback invoked once when the watcher's connection ends.
// voluntary is true when the disconnect was requested locally through Close or
// CloseWithCode, and false when the feed went away or the connection failed.
type OnDisconnectFn = func(w lifegrid.Watcher, voluntary bool)

// WatcherConfig configures a watcher connection.
type WatcherConfig struct {
	// URL is the feed endpoint, e.g. "ws://localhost:8000/watcher/"
	URL string
	// Header is sent with the handshake request. Can be nil.
	Header http.Header
	// HandshakeTimeout bounds the opening handshake
	HandshakeTimeout time.Duration
	// ReadTimeout is how long the connection may stay silent; pings are sent at 9/10 of it
	ReadTimeout     time.Duration
	RateLimitConfig *RateLimitConfig
	OnConnect       OnConnectFn
	OnDisconnect    OnDisconnectFn
	// Logger receives connection warnings. Defaults to log.Default().
	Logger *log.Logger
}

// DefaultWatcherConfig returns a configuration for url with default timeouts and rate limit
func DefaultWatcherConfig(url string) *WatcherConfig {
	return &WatcherConfig{
		URL:              url,
		HandshakeTimeout: defaultHandshakeTimeout,
		ReadTimeout:      defaultReadTimeout,
		RateLimitConfig:  DefaultRateLimitConfig(),
	}
}

// RateLimitConfig defines rate limiting of inbound frames
type RateLimitConfig struct {
	// MessagesPerSecond defines how many frames are handed to the consumer per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the default rate limit configuration
// Allows 4096 frames per second with burst of 8192, enough for a 64x64 grid at one step per second
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 4096,
		Burst:             8192,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

func (c *WatcherConfig) withDefaults() WatcherConfig {
	out := *c
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = defaultHandshakeTimeout
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = defaultReadTimeout
	}
	if out.RateLimitConfig == nil {
		out.RateLimitConfig = DefaultRateLimitConfig()
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	return out
}

func (c *RateLimitConfig) limiter() *rate.Limiter {
	if c == nil || !c.Enabled {
		return nil
	}
	burst := c.Burst
	if burst < 1 {
		// Wait fails outright on a zero burst
		burst = 1
	}
	return rate.NewLimiter(c.MessagesPerSecond, burst)
}
