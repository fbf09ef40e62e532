// Package session implements the session state store: the client-side map of
// every remote-shell session the daemon is tracking, the single active
// session pointer, and the derived read projections.
package session

import (
	"sync"
	"time"
)

// DefaultMaxOutputLines bounds a session's output buffer when the store is
// created without an explicit limit.
const DefaultMaxOutputLines = 1000

// RegionUnknown is the grouping bucket for sessions without a region.
const RegionUnknown = "unknown"

// Store holds all session entries behind a single writer lock. Reads return
// defensive copies; callers never see live internal state.
type Store struct {
	mu             sync.RWMutex
	entries        map[string]*Entry
	activeID       string
	maxOutputLines int

	now func() time.Time // injectable for tests
}

// NewStore creates an empty store. maxOutputLines <= 0 selects the default.
func NewStore(maxOutputLines int) *Store {
	if maxOutputLines <= 0 {
		maxOutputLines = DefaultMaxOutputLines
	}
	return &Store{
		entries:        make(map[string]*Entry),
		maxOutputLines: maxOutputLines,
		now:            time.Now,
	}
}

// Upsert inserts or replaces the session metadata for sess.ID. An existing
// entry keeps its output buffer and activity timestamp; only the Session
// record is replaced. IsActive is recomputed from the active pointer, never
// taken from the incoming payload.
func (s *Store) Upsert(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(sess)
}

func (s *Store) upsertLocked(sess Session) {
	if existing, ok := s.entries[sess.ID]; ok {
		existing.Session = sess.clone()
		existing.IsActive = s.activeID == sess.ID
		return
	}

	last := sess.LastActivity
	if last.IsZero() {
		last = s.now()
	}
	s.entries[sess.ID] = &Entry{
		Session:      sess.clone(),
		LastActivity: last,
		IsActive:     s.activeID == sess.ID,
	}
}

// Remove deletes the entry. Removing the active session clears the pointer.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	if s.activeID == id {
		s.activeID = ""
	}
}

// UpdateStatus sets the session's status and refreshes its activity
// timestamp. Unknown ids are ignored: status events race with deletion.
func (s *Store) UpdateStatus(id string, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return
	}
	now := s.now()
	entry.Session.Status = st
	entry.Session.LastActivity = now
	entry.LastActivity = now
}

// AppendOutput appends one line to the session's output buffer, evicting
// from the front once the configured bound is exceeded. Unknown ids are
// ignored.
func (s *Store) AppendOutput(id, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return
	}
	entry.Output = append(entry.Output, line)
	if excess := len(entry.Output) - s.maxOutputLines; excess > 0 {
		entry.Output = append([]string(nil), entry.Output[excess:]...)
	}
	entry.LastActivity = s.now()
}

// ClearOutput empties the session's output buffer.
func (s *Store) ClearOutput(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[id]; ok {
		entry.Output = nil
	}
}

// SetActive moves the active pointer to id ("" clears it) and recomputes
// IsActive on exactly the old and new targets. Pointing at an unknown id
// clears the pointer instead, preserving the invariant that a non-empty
// pointer always names an existing entry.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[s.activeID]; ok {
		old.IsActive = false
	}

	if id == "" {
		s.activeID = ""
		return
	}
	entry, ok := s.entries[id]
	if !ok {
		s.activeID = ""
		return
	}
	entry.IsActive = true
	s.activeID = id
}

// BulkReplace swaps the whole map for an authoritative session list.
// Entries surviving the replacement keep their output buffers and activity
// timestamps (same preservation rule as Upsert); absentees are dropped, and
// dropping the active session clears the pointer.
func (s *Store) BulkReplace(sessions []Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[string]struct{}, len(sessions))
	for _, sess := range sessions {
		keep[sess.ID] = struct{}{}
	}
	for id := range s.entries {
		if _, ok := keep[id]; !ok {
			delete(s.entries, id)
			if s.activeID == id {
				s.activeID = ""
			}
		}
	}
	for _, sess := range sessions {
		s.upsertLocked(sess)
	}
}

// Get returns a copy of the entry for id.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// List returns copies of all entries. Order is not guaranteed; callers sort.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Clone())
	}
	return out
}

// Active returns a copy of the active entry, or nil if no session is active.
func (s *Store) Active() *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[s.activeID]
	if !ok {
		return nil
	}
	return entry.Clone()
}

// ActiveOutput returns a copy of the active session's output buffer.
func (s *Store) ActiveOutput() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[s.activeID]
	if !ok || len(entry.Output) == 0 {
		return nil
	}
	out := make([]string, len(entry.Output))
	copy(out, entry.Output)
	return out
}

// Count returns the total number of sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ConnectedCount returns the number of sessions with status connected.
func (s *Store) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entry := range s.entries {
		if entry.Session.Status == Connected {
			n++
		}
	}
	return n
}

// GroupByRegion buckets session copies by region. Sessions without a region
// coalesce into the RegionUnknown bucket.
func (s *Store) GroupByRegion() map[string][]*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]*Entry)
	for _, entry := range s.entries {
		region := entry.Session.Region
		if region == "" {
			region = RegionUnknown
		}
		out[region] = append(out[region], entry.Clone())
	}
	return out
}
