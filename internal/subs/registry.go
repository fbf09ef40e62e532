// Package subs implements the subscription registry.
//
// Observers register a callback under a topic: a concrete session id within
// an event category, the wildcard matching every session in that category, or
// a singleton channel (connection state, protocol errors). Subscribe returns
// a handle whose Release removes exactly that registration and nothing else.
package subs

import (
	"sort"
	"sync"
)

// Category classifies events for routing.
type Category string

const (
	// CategoryOutput carries session output events, keyed by session id.
	CategoryOutput Category = "output"

	// CategoryStatus carries session status events, keyed by session id.
	CategoryStatus Category = "status"

	// CategoryCommand carries command completion events, keyed by session id.
	CategoryCommand Category = "command"

	// CategoryConnState is the singleton connection-state channel.
	CategoryConnState Category = "connection-state"

	// CategoryProtocolError is the singleton protocol-error channel.
	CategoryProtocolError Category = "protocol-error"
)

// Wildcard subscribes to every session id within a category.
const Wildcard = "*"

// Callback receives a single dispatched event.
type Callback func(event any)

type topicKey struct {
	cat Category
	id  string
}

// Registry fans events out to registered callbacks.
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	topics map[topicKey]map[uint64]Callback

	// Last published connection state, replayed to new subscribers so they
	// learn the current status without waiting for the next transition.
	lastConnState any
	hasConnState  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[topicKey]map[uint64]Callback),
	}
}

// Subscription is the capability handle returned by Subscribe. Release is
// the only way to remove the registration it represents.
type Subscription struct {
	reg  *Registry
	key  topicKey
	id   uint64
	once sync.Once
}

// Release removes this registration. Other subscribers on the same topic
// are unaffected. Safe to call more than once.
func (s *Subscription) Release() {
	s.once.Do(func() {
		s.reg.mu.Lock()
		defer s.reg.mu.Unlock()
		if cbs, ok := s.reg.topics[s.key]; ok {
			delete(cbs, s.id)
			if len(cbs) == 0 {
				delete(s.reg.topics, s.key)
			}
		}
	})
}

// Subscribe registers fn under (cat, sessionID). Pass Wildcard as sessionID
// to observe all sessions in the category, or "" for singleton categories.
// A connection-state subscriber is synchronously replayed the current status
// before Subscribe returns.
func (r *Registry) Subscribe(cat Category, sessionID string, fn Callback) *Subscription {
	key := topicKey{cat: cat, id: sessionID}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	cbs, ok := r.topics[key]
	if !ok {
		cbs = make(map[uint64]Callback)
		r.topics[key] = cbs
	}
	cbs[id] = fn

	var replay any
	doReplay := false
	if cat == CategoryConnState && r.hasConnState {
		replay = r.lastConnState
		doReplay = true
	}
	r.mu.Unlock()

	if doReplay {
		fn(replay)
	}

	return &Subscription{reg: r, key: key, id: id}
}

// Notify dispatches event to exact-topic callbacks, then to wildcard
// callbacks for the same category. Callbacks run synchronously on the
// caller's goroutine, in registration order, outside the registry lock.
func (r *Registry) Notify(cat Category, sessionID string, event any) {
	r.mu.Lock()
	if cat == CategoryConnState {
		r.lastConnState = event
		r.hasConnState = true
	}
	cbs := r.snapshot(topicKey{cat: cat, id: sessionID})
	if sessionID != "" && sessionID != Wildcard {
		cbs = append(cbs, r.snapshot(topicKey{cat: cat, id: Wildcard})...)
	}
	r.mu.Unlock()

	for _, fn := range cbs {
		fn(event)
	}
}

// snapshot returns a topic's callbacks in registration order.
// Caller must hold the lock.
func (r *Registry) snapshot(key topicKey) []Callback {
	cbs, ok := r.topics[key]
	if !ok {
		return nil
	}
	ids := make([]uint64, 0, len(cbs))
	for id := range cbs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Callback, 0, len(ids))
	for _, id := range ids {
		out = append(out, cbs[id])
	}
	return out
}

// SubscriberCount returns the number of callbacks registered under
// (cat, sessionID). Used by tests and stats.
func (r *Registry) SubscriberCount(cat Category, sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[topicKey{cat: cat, id: sessionID}])
}
