package core

import (
	"context"

	"github.com/shellmux/shellmux/internal/protocol"
	"github.com/shellmux/shellmux/internal/router"
	"github.com/shellmux/shellmux/internal/subs"
)

// WatchSession asks the daemon to stream a session's output and status over
// the multiplexed socket. Offline, the subscribe frame queues and replays
// after the next successful connect.
func (c *Client) WatchSession(sessionID string) error {
	return c.manager.Send(protocol.EncodeSubscribe(sessionID))
}

// UnwatchSession stops the daemon-side stream for a session. Local observers
// keep their registrations; they simply stop receiving events.
func (c *Client) UnwatchSession(sessionID string) error {
	return c.manager.Send(protocol.EncodeUnsubscribe(sessionID))
}

// OnOutput registers an observer for a session's output. Use subs.Wildcard
// to observe every session.
func (c *Client) OnOutput(sessionID string, fn subs.Callback) *subs.Subscription {
	return c.registry.Subscribe(subs.CategoryOutput, sessionID, fn)
}

// OnStatus registers an observer for session lifecycle transitions.
func (c *Client) OnStatus(sessionID string, fn subs.Callback) *subs.Subscription {
	return c.registry.Subscribe(subs.CategoryStatus, sessionID, fn)
}

// OnConnState registers an observer for transport state changes. The current
// state is replayed synchronously on subscribe.
func (c *Client) OnConnState(fn subs.Callback) *subs.Subscription {
	return c.registry.Subscribe(subs.CategoryConnState, "", fn)
}

// OnProtocolError registers an observer for malformed or unknown frames.
func (c *Client) OnProtocolError(fn subs.Callback) *subs.Subscription {
	return c.registry.Subscribe(subs.CategoryProtocolError, "", fn)
}

// ExecuteAsync issues a command on a session and returns the channel that
// will carry its single CommandResult, along with the request id. With
// queue_commands off the transport must be connected; with it on the frame
// queues like any other.
func (c *Client) ExecuteAsync(sessionID, command string) (<-chan router.CommandResult, string, error) {
	frame, requestID := protocol.EncodeExecute(sessionID, command, "")
	ch := c.router.RegisterPending(requestID, sessionID)

	var err error
	if c.queueCommands {
		err = c.manager.Send(frame)
	} else {
		err = c.manager.SendNow(frame)
	}
	if err != nil {
		c.router.CancelPending(requestID)
		return nil, "", err
	}

	return ch, requestID, nil
}

// Execute issues a command and waits for its completion. Cancelling ctx
// abandons the wait and the eventual completion is dropped.
func (c *Client) Execute(ctx context.Context, sessionID, command string) (router.CommandResult, error) {
	ch, requestID, err := c.ExecuteAsync(sessionID, command)
	if err != nil {
		return router.CommandResult{}, err
	}

	select {
	case res := <-ch:
		return res, res.Err
	case <-ctx.Done():
		c.router.CancelPending(requestID)
		return router.CommandResult{}, ctx.Err()
	}
}

// SetActive changes which session has focus. Pass "" to clear.
func (c *Client) SetActive(sessionID string) {
	c.store.SetActive(sessionID)
}
