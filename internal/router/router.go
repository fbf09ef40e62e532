// Package router implements the message router: it consumes inbound frames
// from the connection manager, decodes them by kind, fans events out through
// the subscription registry, mutates the session store, and correlates
// execute:command requests with their completion events.
package router

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shellmux/shellmux/internal/conn"
	"github.com/shellmux/shellmux/internal/protocol"
	"github.com/shellmux/shellmux/internal/session"
	"github.com/shellmux/shellmux/internal/subs"
)

// CommandResult is delivered to the waiter of an execute:command request.
// Err is set when the command was cancelled by a terminal disconnect.
type CommandResult struct {
	RequestID string
	SessionID string
	ExitCode  int
	Output    string
	Err       error
}

// PendingCommand tracks one issued execute:command awaiting completion.
type PendingCommand struct {
	RequestID string
	SessionID string
	IssuedAt  time.Time
}

type pendingEntry struct {
	cmd PendingCommand
	ch  chan CommandResult
}

// Stats are the router's runtime counters.
type Stats struct {
	Received        int64
	ProtocolErrors  int64
	PendingCommands int
}

// Router routes decoded events. Frames from a single connection arrive and
// are processed in order; the loop is the single writer for the store
// mutations it performs.
type Router struct {
	logger   *slog.Logger
	input    <-chan conn.Frame
	store    *session.Store
	registry *subs.Registry

	wg sync.WaitGroup

	mu             sync.Mutex
	pending        map[string]pendingEntry
	received       int64
	protocolErrors int64
}

// NewRouter creates a router reading from input until it closes.
func NewRouter(input <-chan conn.Frame, store *session.Store, registry *subs.Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:   logger,
		input:    input,
		store:    store,
		registry: registry,
		pending:  make(map[string]pendingEntry),
	}
}

// Start begins the route loop. The loop exits when the input channel closes.
func (r *Router) Start() {
	r.wg.Add(1)
	go r.routeLoop()
}

// Stop waits for the route loop to drain. The input channel must already be
// closed (the connection manager's Stop does that).
func (r *Router) Stop() {
	r.wg.Wait()
}

// Stats returns current counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Received:        r.received,
		ProtocolErrors:  r.protocolErrors,
		PendingCommands: len(r.pending),
	}
}

// RegisterPending records an issued execute:command. The returned channel
// receives exactly one CommandResult: the matching completion, or a
// cancellation from FailPending.
func (r *Router) RegisterPending(requestID, sessionID string) <-chan CommandResult {
	ch := make(chan CommandResult, 1)

	r.mu.Lock()
	r.pending[requestID] = pendingEntry{
		cmd: PendingCommand{RequestID: requestID, SessionID: sessionID, IssuedAt: time.Now()},
		ch:  ch,
	}
	r.mu.Unlock()

	return ch
}

// CancelPending removes a pending command without delivering a result. Used
// when the send itself failed and no completion can ever arrive.
func (r *Router) CancelPending(requestID string) {
	r.mu.Lock()
	delete(r.pending, requestID)
	r.mu.Unlock()
}

// FailPending cancels every pending command with err. Called on terminal
// disconnects so waiters fail instead of hanging forever.
func (r *Router) FailPending(err error) {
	r.mu.Lock()
	entries := make([]pendingEntry, 0, len(r.pending))
	for _, e := range r.pending {
		entries = append(entries, e)
	}
	r.pending = make(map[string]pendingEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.ch <- CommandResult{
			RequestID: e.cmd.RequestID,
			SessionID: e.cmd.SessionID,
			Err:       err,
		}
	}
}

func (r *Router) routeLoop() {
	defer r.wg.Done()

	for frame := range r.input {
		r.route(frame)
	}
	r.logger.Debug("router input closed")
}

// route decodes and dispatches one frame. It never panics and never drops
// silently: undecodable frames surface on the protocol-error topic.
func (r *Router) route(frame conn.Frame) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	switch ev := protocol.Decode(frame.Data).(type) {
	case protocol.AuthSuccessEvent:
		r.logger.Debug("authenticated")

	case protocol.OutputEvent:
		r.store.AppendOutput(ev.SessionID, ev.Data)
		r.registry.Notify(subs.CategoryOutput, ev.SessionID, ev)

	case protocol.StatusEvent:
		if st, ok := session.ParseStatus(ev.Status); ok {
			r.store.UpdateStatus(ev.SessionID, st)
		} else {
			r.logger.Debug("unrecognized session status", "status", ev.Status, "session", ev.SessionID)
		}
		r.registry.Notify(subs.CategoryStatus, ev.SessionID, ev)

	case protocol.CompleteEvent:
		r.resolvePending(ev)
		// At-least-once: late or duplicate completions still reach
		// observers even with no matching pending command.
		r.registry.Notify(subs.CategoryCommand, ev.SessionID, ev)

	case protocol.ErrorEvent:
		r.mu.Lock()
		r.protocolErrors++
		r.mu.Unlock()
		r.logger.Warn("protocol error", "code", ev.Code, "message", ev.Message)
		r.registry.Notify(subs.CategoryProtocolError, "", ev)
	}
}

func (r *Router) resolvePending(ev protocol.CompleteEvent) {
	r.mu.Lock()
	entry, ok := r.pending[ev.RequestID]
	if ok {
		delete(r.pending, ev.RequestID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	entry.ch <- CommandResult{
		RequestID: ev.RequestID,
		SessionID: ev.SessionID,
		ExitCode:  ev.ExitCode,
		Output:    ev.Output,
	}
}
