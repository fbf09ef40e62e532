package api

import (
	"context"
	"fmt"
)

// CreateSession creates a new remote session.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*APISession, error) {
	var resp SingleSessionResponse
	if err := c.post(ctx, "/sessions", req, &resp); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &resp.Session, nil
}

// ListSessions fetches every session the daemon knows about.
func (c *Client) ListSessions(ctx context.Context) ([]APISession, error) {
	var resp SessionsResponse
	if err := c.get(ctx, "/sessions", nil, &resp); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return resp.Sessions, nil
}

// GetSession fetches a single session by id.
func (c *Client) GetSession(ctx context.Context, id string) (*APISession, error) {
	var resp SingleSessionResponse
	if err := c.get(ctx, "/sessions/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &resp.Session, nil
}

// DeleteSession terminates a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if err := c.del(ctx, "/sessions/"+id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// ReconnectSession asks the daemon to re-establish a session's underlying
// shell. The daemon reports progress through session:status frames.
func (c *Client) ReconnectSession(ctx context.Context, id string) (*APISession, error) {
	var resp SingleSessionResponse
	if err := c.post(ctx, "/sessions/"+id+"/reconnect", nil, &resp); err != nil {
		return nil, fmt.Errorf("reconnect session %s: %w", id, err)
	}
	return &resp.Session, nil
}
