package api

import (
	"time"

	"github.com/shellmux/shellmux/internal/session"
)

// ToSession converts an API session into the store's session type. Unknown
// status strings map to errored rather than dropping the session; malformed
// timestamps are left zero.
func ToSession(s APISession) session.Session {
	st, ok := session.ParseStatus(s.Status)
	if !ok {
		st = session.Errored
	}

	out := session.Session{
		ID:       s.ID,
		Name:     s.Name,
		Status:   st,
		Kind:     s.Kind,
		Region:   s.Region,
		Hostname: s.Hostname,
	}

	if t, err := time.Parse(time.RFC3339, s.CreatedAt); err == nil {
		out.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, s.LastActivity); err == nil {
		out.LastActivity = t
	}

	if len(s.Env) > 0 {
		out.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			out.Env[k] = v
		}
	}

	return out
}

// ToSessions converts a list response.
func ToSessions(list []APISession) []session.Session {
	out := make([]session.Session, 0, len(list))
	for _, s := range list {
		out = append(out, ToSession(s))
	}
	return out
}
