package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Daemon.WSURL == "" {
		return errors.New("daemon.ws_url is required")
	}
	if !strings.HasPrefix(c.Daemon.WSURL, "ws://") && !strings.HasPrefix(c.Daemon.WSURL, "wss://") {
		return fmt.Errorf("daemon.ws_url must be a ws:// or wss:// URL, got %q", c.Daemon.WSURL)
	}
	if c.Daemon.MaxRetries < 0 {
		return errors.New("daemon.max_retries must be >= 0")
	}

	if c.Connection.MaxReconnectAttempts < 0 {
		return errors.New("connection.max_reconnect_attempts must be >= 0")
	}
	if c.Connection.ReconnectDelay <= 0 {
		return errors.New("connection.reconnect_delay must be positive")
	}
	if c.Connection.ReconnectMaxDelay < c.Connection.ReconnectDelay {
		return fmt.Errorf("connection.reconnect_max_delay (%v) cannot be below reconnect_delay (%v)",
			c.Connection.ReconnectMaxDelay, c.Connection.ReconnectDelay)
	}
	switch c.Connection.Backoff {
	case BackoffFixed, BackoffExponential:
	default:
		return fmt.Errorf("connection.backoff must be %q or %q, got %q",
			BackoffFixed, BackoffExponential, c.Connection.Backoff)
	}

	if c.Sessions.MaxOutputLines < 1 {
		return errors.New("sessions.max_output_lines must be >= 1")
	}

	return nil
}
