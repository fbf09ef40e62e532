// Package core wires the multiplexer client together: the connection
// manager, the message router, the session store, the subscription registry,
// and the REST client, behind one facade.
package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shellmux/shellmux/internal/api"
	"github.com/shellmux/shellmux/internal/backoff"
	"github.com/shellmux/shellmux/internal/config"
	"github.com/shellmux/shellmux/internal/conn"
	"github.com/shellmux/shellmux/internal/router"
	"github.com/shellmux/shellmux/internal/session"
	"github.com/shellmux/shellmux/internal/subs"
)

// ErrConnectionLost cancels in-flight commands when the transport reaches a
// terminal state.
var ErrConnectionLost = errors.New("connection lost")

// Client is the top-level multiplexer client.
type Client struct {
	logger *slog.Logger

	registry *subs.Registry
	store    *session.Store
	manager  *conn.Manager
	router   *router.Router
	rest     *api.Client

	queueCommands bool
	connSub       *subs.Subscription
}

// New builds a client from configuration. Defaults must already be applied
// (config.LoadAndValidate does that). A nil logger selects slog.Default().
func New(cfg *config.ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	registry := subs.NewRegistry()
	store := session.NewStore(cfg.Sessions.MaxOutputLines)
	manager := conn.NewManager(connConfig(cfg), registry, logger)
	rt := router.NewRouter(manager.Frames(), store, registry, logger)

	var rest *api.Client
	if cfg.Daemon.RestURL != "" {
		rest = api.NewClient(cfg.Daemon.RestURL, cfg.Daemon.Token,
			api.WithTimeout(cfg.Daemon.Timeout),
			api.WithRetries(cfg.Daemon.MaxRetries, cfg.Connection.ReconnectDelay),
			api.WithLogger(logger),
		)
	}

	return &Client{
		logger:        logger,
		registry:      registry,
		store:         store,
		manager:       manager,
		router:        rt,
		rest:          rest,
		queueCommands: cfg.Connection.QueueCommands,
	}
}

func connConfig(cfg *config.ClientConfig) conn.Config {
	var policy backoff.Policy
	if cfg.Connection.Backoff == config.BackoffExponential {
		policy = backoff.Exponential{
			Base: cfg.Connection.ReconnectDelay,
			Max:  cfg.Connection.ReconnectMaxDelay,
		}
	}

	return conn.Config{
		URL:                  cfg.Daemon.WSURL,
		Token:                cfg.Daemon.Token,
		AutoReconnect:        cfg.Connection.Reconnect(),
		MaxReconnectAttempts: cfg.Connection.MaxReconnectAttempts,
		Policy:               policy,
		ReconnectDelay:       cfg.Connection.ReconnectDelay,
		ReconnectMaxDelay:    cfg.Connection.ReconnectMaxDelay,
		HandshakeTimeout:     cfg.Daemon.Timeout,
		WriteTimeout:         cfg.Connection.WriteTimeout,
		PingInterval:         cfg.Connection.PingInterval,
		PongTimeout:          cfg.Connection.PongTimeout,
	}
}

// Start begins routing and connects to the daemon. A failed initial dial is
// returned to the caller; the routing loop keeps running either way so a
// later Connect can succeed.
func (c *Client) Start(ctx context.Context) error {
	c.router.Start()

	// Terminal transport states fail every in-flight command so waiters do
	// not hang on completions that can never arrive.
	c.connSub = c.registry.Subscribe(subs.CategoryConnState, "", func(event any) {
		change, ok := event.(conn.StatusChange)
		if !ok {
			return
		}
		if change.Status == conn.StatusDisconnected || change.Status == conn.StatusError {
			c.router.FailPending(ErrConnectionLost)
		}
	})

	return c.manager.Connect(ctx)
}

// Connect re-establishes the transport after an explicit Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	return c.manager.Connect(ctx)
}

// Disconnect deliberately closes the transport. Auto-reconnect stays off
// until the next Connect.
func (c *Client) Disconnect() error {
	return c.manager.Disconnect()
}

// ConnStatus returns the current transport status.
func (c *Client) ConnStatus() conn.Status {
	return c.manager.Status()
}

// Stop shuts the client down: transport first, then the router drains the
// closed frame channel.
func (c *Client) Stop(ctx context.Context) error {
	if c.connSub != nil {
		c.connSub.Release()
	}
	err := c.manager.Stop(ctx)
	c.router.Stop()
	c.router.FailPending(ErrConnectionLost)
	return err
}

// Store exposes the session store for read projections.
func (c *Client) Store() *session.Store {
	return c.store
}

// Registry exposes the subscription registry for event observers.
func (c *Client) Registry() *subs.Registry {
	return c.registry
}
