package core

import (
	"context"
	"errors"

	"github.com/shellmux/shellmux/internal/api"
	"github.com/shellmux/shellmux/internal/session"
)

// ErrNoRestEndpoint is returned from CRUD calls when daemon.rest_url is not
// configured.
var ErrNoRestEndpoint = errors.New("no rest endpoint configured")

// CreateSession creates a session on the daemon and seeds the local store.
func (c *Client) CreateSession(ctx context.Context, req api.CreateSessionRequest) (session.Session, error) {
	if c.rest == nil {
		return session.Session{}, ErrNoRestEndpoint
	}

	created, err := c.rest.CreateSession(ctx, req)
	if err != nil {
		return session.Session{}, err
	}

	s := api.ToSession(*created)
	c.store.Upsert(s)
	return s, nil
}

// RefreshSessions reconciles the local store with the daemon's session list.
// Sessions the daemon no longer reports are dropped, output buffers of
// surviving sessions are kept.
func (c *Client) RefreshSessions(ctx context.Context) error {
	if c.rest == nil {
		return ErrNoRestEndpoint
	}

	list, err := c.rest.ListSessions(ctx)
	if err != nil {
		return err
	}

	c.store.BulkReplace(api.ToSessions(list))
	c.logger.Debug("sessions refreshed", "count", len(list))
	return nil
}

// DeleteSession terminates a session on the daemon and removes it locally.
// The daemon not knowing the session is not an error; the local record still
// goes away.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if c.rest == nil {
		return ErrNoRestEndpoint
	}

	err := c.rest.DeleteSession(ctx, id)
	var apiErr *api.APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.StatusCode == 404) {
		return err
	}

	c.store.Remove(id)
	return nil
}

// ReconnectSession asks the daemon to re-establish a session's shell and
// updates the local record with the daemon's view.
func (c *Client) ReconnectSession(ctx context.Context, id string) (session.Session, error) {
	if c.rest == nil {
		return session.Session{}, ErrNoRestEndpoint
	}

	updated, err := c.rest.ReconnectSession(ctx, id)
	if err != nil {
		return session.Session{}, err
	}

	s := api.ToSession(*updated)
	c.store.Upsert(s)
	return s, nil
}
