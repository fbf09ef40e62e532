package conn

import (
	"errors"
	"fmt"
	"time"

	"github.com/shellmux/shellmux/internal/backoff"
)

// Status is the transport connection state. Owned exclusively by the
// Manager; everyone else observes it through the registry's
// connection-state topic.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusError
)

var statusNames = map[Status]string{
	StatusDisconnected: "disconnected",
	StatusConnecting:   "connecting",
	StatusConnected:    "connected",
	StatusReconnecting: "reconnecting",
	StatusError:        "error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// StatusChange is the event published on the connection-state topic. Message
// carries a human-readable cause where one exists (close reason, dial error,
// reconnect exhaustion).
type StatusChange struct {
	Status  Status
	Message string
}

// Frame is one inbound wire message handed to the Message Router.
type Frame struct {
	Data       []byte
	ReceivedAt time.Time
}

// Errors.
var (
	ErrNotConnected = errors.New("not connected")
	ErrSuperseded   = errors.New("connection attempt superseded")
	ErrStopped      = errors.New("manager stopped")
)

// ConnectionError wraps a failed dial or auth handshake.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CloseReason is sent with the normal-closure frame on deliberate
// disconnects. Any other close is treated as unexpected.
const CloseReason = "Client disconnect"

// Config configures the Manager.
type Config struct {
	URL   string // WebSocket URL of the daemon
	Token string // credential forwarded in the auth frame; empty skips auth

	AutoReconnect        bool
	MaxReconnectAttempts int
	Policy               backoff.Policy // nil selects Fixed{ReconnectDelay, ReconnectMaxDelay}
	ReconnectDelay       time.Duration
	ReconnectMaxDelay    time.Duration

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	FrameBufferSize  int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AutoReconnect:        true,
		MaxReconnectAttempts: 10,
		ReconnectDelay:       time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         5 * time.Second,
		PingInterval:         30 * time.Second,
		PongTimeout:          60 * time.Second,
		FrameBufferSize:      1024,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = d.MaxReconnectAttempts
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = d.ReconnectMaxDelay
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongTimeout == 0 {
		c.PongTimeout = d.PongTimeout
	}
	if c.FrameBufferSize == 0 {
		c.FrameBufferSize = d.FrameBufferSize
	}
	if c.Policy == nil {
		c.Policy = backoff.Fixed{Base: c.ReconnectDelay, Max: c.ReconnectMaxDelay}
	}
}
