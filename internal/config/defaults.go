package config

import "time"

// Backoff strategy names accepted by connection.backoff.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Default values for optional configuration fields.
const (
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultMaxReconnectAttempts = 10
	DefaultReconnectDelay       = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultBackoff              = BackoffFixed
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingInterval         = 30 * time.Second
	DefaultPongTimeout          = 60 * time.Second
	DefaultMaxOutputLines       = 1000
)

func (c *ClientConfig) applyDefaults() {
	// Daemon defaults
	if c.Daemon.Timeout == 0 {
		c.Daemon.Timeout = DefaultAPITimeout
	}
	if c.Daemon.MaxRetries == 0 {
		c.Daemon.MaxRetries = DefaultMaxRetries
	}

	// Connection defaults
	if c.Connection.MaxReconnectAttempts == 0 {
		c.Connection.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Connection.ReconnectDelay == 0 {
		c.Connection.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.Backoff == "" {
		c.Connection.Backoff = DefaultBackoff
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PongTimeout == 0 {
		c.Connection.PongTimeout = DefaultPongTimeout
	}

	// Sessions defaults
	if c.Sessions.MaxOutputLines == 0 {
		c.Sessions.MaxOutputLines = DefaultMaxOutputLines
	}
}
