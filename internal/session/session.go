package session

import (
	"encoding/json"
	"time"
)

// Status is a session's lifecycle state as reported by the daemon. It is
// independent of the transport connection to the daemon itself.
type Status int

const (
	Connecting Status = iota
	Connected
	Disconnected
	Errored
)

var statusNames = map[Status]string{
	Connecting:   "connecting",
	Connected:    "connected",
	Disconnected: "disconnected",
	Errored:      "error",
}

var statusFromName = map[string]Status{
	"connecting":   Connecting,
	"connected":    Connected,
	"disconnected": Disconnected,
	"error":        Errored,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStatus maps a wire status string to a Status.
func ParseStatus(name string) (Status, bool) {
	s, ok := statusFromName[name]
	return s, ok
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// Session is the metadata record for one remote-shell session. The ID is
// assigned by the daemon, or synthesized locally while a create is pending.
type Session struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Status       Status            `json:"status"`
	Kind         string            `json:"kind"`
	Region       string            `json:"region,omitempty"`
	Hostname     string            `json:"hostname,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
	Env          map[string]string `json:"env,omitempty"`
}

// clone deep-copies the session so store reads can be mutated freely.
func (s Session) clone() Session {
	if s.Env != nil {
		env := make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			env[k] = v
		}
		s.Env = env
	}
	return s
}

// Entry is the store's unit of storage: session metadata plus the bounded
// output buffer and activity bookkeeping.
type Entry struct {
	Session      Session
	Output       []string
	LastActivity time.Time
	IsActive     bool
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Session = e.Session.clone()
	if len(e.Output) > 0 {
		c.Output = make([]string, len(e.Output))
		copy(c.Output, e.Output)
	}
	return &c
}
