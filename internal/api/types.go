package api

// SessionsResponse from GET /sessions
type SessionsResponse struct {
	Sessions []APISession `json:"sessions"`
}

// SingleSessionResponse from GET /sessions/{id} and POST /sessions
type SingleSessionResponse struct {
	Session APISession `json:"session"`
}

// APISession represents a session as the daemon reports it.
type APISession struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Kind     string `json:"kind"`
	Region   string `json:"region"`
	Hostname string `json:"hostname"`

	// Timestamps (ISO 8601)
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`

	Env map[string]string `json:"env"`
}

// CreateSessionRequest is the body for POST /sessions.
type CreateSessionRequest struct {
	Name     string            `json:"name"`
	Kind     string            `json:"kind,omitempty"`
	Region   string            `json:"region,omitempty"`
	Hostname string            `json:"hostname,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
}
