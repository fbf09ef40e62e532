// Package config loads and validates the client configuration from YAML,
// with ${VAR} environment expansion.
package config

import "time"

// ClientConfig is the root configuration for a multiplexer client.
type ClientConfig struct {
	Daemon     DaemonConfig     `yaml:"daemon"`
	Connection ConnectionConfig `yaml:"connection"`
	Sessions   SessionsConfig   `yaml:"sessions"`
}

// DaemonConfig holds the daemon endpoints and credentials.
type DaemonConfig struct {
	WSURL      string        `yaml:"ws_url"`
	RestURL    string        `yaml:"rest_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ConnectionConfig holds WebSocket connection manager settings.
// AutoReconnect is a pointer so that an absent key means enabled.
type ConnectionConfig struct {
	AutoReconnect        *bool         `yaml:"auto_reconnect"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	Backoff              string        `yaml:"backoff"`
	QueueCommands        bool          `yaml:"queue_commands"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PongTimeout          time.Duration `yaml:"pong_timeout"`
}

// SessionsConfig holds session store settings.
type SessionsConfig struct {
	MaxOutputLines int `yaml:"max_output_lines"`
}

// Reconnect reports whether auto-reconnect is enabled. Defaults to true
// when the key is absent.
func (c *ConnectionConfig) Reconnect() bool {
	return c.AutoReconnect == nil || *c.AutoReconnect
}
