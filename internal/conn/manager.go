// Package conn implements the connection manager: the single multiplexed
// WebSocket to the daemon, its status state machine, the outbound queue
// drained after (re)connection, and the auto-reconnect timer.
package conn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shellmux/shellmux/internal/protocol"
	"github.com/shellmux/shellmux/internal/queue"
	"github.com/shellmux/shellmux/internal/subs"
)

// Manager owns the physical socket. At most one socket is open at any time;
// all mutations happen under one mutex, and every connect/disconnect cycle
// bumps a generation counter so that stale reconnect timers and superseded
// dial attempts become no-ops instead of racing the new cycle.
type Manager struct {
	cfg      Config
	logger   *slog.Logger
	registry *subs.Registry
	queue    *queue.Queue

	frames chan Frame
	wg     sync.WaitGroup

	mu         sync.Mutex
	status     Status
	client     *client
	generation uint64
	attempt    int
	retryTimer *time.Timer
	stopped    bool

	// Join point for an in-flight connect attempt: a second Connect waits
	// on attemptDone instead of opening a second socket.
	attemptDone chan struct{}
	attemptErr  error
}

// NewManager creates a manager. The registry receives StatusChange events on
// the connection-state topic. A nil logger selects slog.Default().
func NewManager(cfg Config, registry *subs.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Manager{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		queue:    queue.New(),
		frames:   make(chan Frame, cfg.FrameBufferSize),
		status:   StatusDisconnected,
	}
}

// Frames returns the inbound frame channel consumed by the Message Router.
// It is closed by Stop.
func (m *Manager) Frames() <-chan Frame {
	return m.frames
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// QueueLen returns the number of frames waiting for a connected socket.
func (m *Manager) QueueLen() int {
	return m.queue.Len()
}

// Connect establishes the connection. Idempotent: already connected returns
// immediately; a concurrent in-flight attempt is joined rather than opening
// a second socket. On open success the auth frame (if a token is configured)
// is sent and the outbound queue flushed in order before the status becomes
// connected. On failure the status becomes error and a *ConnectionError is
// returned.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	switch m.status {
	case StatusConnected:
		m.mu.Unlock()
		return nil
	case StatusConnecting:
		done := m.attemptDone
		m.mu.Unlock()
		if done == nil {
			return ErrSuperseded
		}
		select {
		case <-done:
			m.mu.Lock()
			err := m.attemptErr
			m.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.generation++
	gen := m.generation
	m.cancelRetryLocked()
	m.attempt = 0
	change := m.setStatusLocked(StatusConnecting, "")
	done := make(chan struct{})
	m.attemptDone = done
	m.mu.Unlock()
	m.notify(change)

	err := m.open(ctx, gen)
	if err != nil && !errors.Is(err, ErrSuperseded) {
		err = m.failAttempt(gen, err)
	}

	m.mu.Lock()
	m.attemptErr = err
	if m.attemptDone == done {
		m.attemptDone = nil
	}
	m.mu.Unlock()
	close(done)

	return err
}

// Disconnect closes the socket with the normal-closure code and reason,
// cancels any pending reconnect timer, and transitions to disconnected.
// This is the only path that suppresses auto-reconnect.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	m.generation++
	m.cancelRetryLocked()
	m.attempt = 0
	cl := m.client
	m.client = nil
	already := m.status == StatusDisconnected
	var change StatusChange
	if !already {
		change = m.setStatusLocked(StatusDisconnected, "")
	}
	m.mu.Unlock()

	if cl != nil {
		cl.closeNormal()
	}
	if !already {
		m.notify(change)
	}
	return nil
}

// Send transmits the frame when connected; otherwise it joins the outbound
// queue and nil is returned. Queuing is fire-and-forget: the caller is not
// told about eventual delivery failure. The enqueue happens under mu so a
// frame cannot slip into the queue after open's final drain has run but
// before the status flips to connected.
func (m *Manager) Send(frame []byte) error {
	m.mu.Lock()
	if m.status != StatusConnected || m.client == nil {
		m.queue.Enqueue(frame)
		m.mu.Unlock()
		return nil
	}
	cl := m.client
	m.mu.Unlock()

	return cl.send(frame)
}

// SendNow transmits the frame or fails with ErrNotConnected. Used for
// execute:command when queue_commands is off.
func (m *Manager) SendNow(frame []byte) error {
	m.mu.Lock()
	cl := m.client
	connected := m.status == StatusConnected
	m.mu.Unlock()

	if !connected || cl == nil {
		return ErrNotConnected
	}
	return cl.send(frame)
}

// Stop disconnects, waits for socket goroutines to drain (bounded by ctx),
// and closes the frame channel.
func (m *Manager) Stop(ctx context.Context) error {
	m.Disconnect()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(m.frames)
		return nil
	case <-ctx.Done():
		m.logger.Warn("stop timed out waiting for socket goroutines")
		return ctx.Err()
	}
}

// open dials, authenticates, replays the queue, and installs the socket.
// It returns ErrSuperseded when a newer generation took over mid-attempt,
// and performs no status transitions on failure; callers decide those.
func (m *Manager) open(ctx context.Context, gen uint64) error {
	cl, err := dialClient(ctx, m.cfg, m.frames, &m.wg, m.logger)
	if err != nil {
		return err
	}

	if m.cfg.Token != "" {
		if err := cl.send(protocol.EncodeAuth(m.cfg.Token)); err != nil {
			cl.close()
			return err
		}
	}

	// Replay frames queued while the link was down, in original order and
	// after auth, before anyone can observe "connected".
	if err := m.replayQueue(cl); err != nil {
		cl.close()
		return err
	}

	m.mu.Lock()
	if m.generation != gen || m.stopped {
		m.mu.Unlock()
		cl.close()
		return ErrSuperseded
	}
	// Frames enqueued since the replay above. Send enqueues under mu, so
	// after this drain nothing can join the queue before the status flips
	// to connected and Sends go direct.
	if err := m.replayQueue(cl); err != nil {
		m.mu.Unlock()
		cl.close()
		return err
	}
	m.client = cl
	m.attempt = 0
	change := m.setStatusLocked(StatusConnected, "")
	m.mu.Unlock()

	// Publish connected before the watcher exists: an instantly dying
	// socket must not get its reconnecting transition out first.
	m.notify(change)

	m.wg.Add(1)
	go m.watch(cl, gen)

	m.logger.Info("connected", "url", m.cfg.URL)
	return nil
}

// replayQueue drains the outbound queue to the socket. On a write failure
// the unsent remainder is put back at the head so it survives for the next
// successful connection.
func (m *Manager) replayQueue(cl *client) error {
	frames := m.queue.DrainInOrder()
	for i, frame := range frames {
		if err := cl.send(frame); err != nil {
			m.queue.Requeue(frames[i:])
			return err
		}
	}
	return nil
}

// failAttempt transitions a failed explicit connect to the terminal error
// status, unless a newer cycle already took over.
func (m *Manager) failAttempt(gen uint64, err error) error {
	cerr := &ConnectionError{Err: err}

	m.mu.Lock()
	if m.generation != gen || m.stopped {
		m.mu.Unlock()
		return ErrSuperseded
	}
	change := m.setStatusLocked(StatusError, cerr.Error())
	m.mu.Unlock()

	m.notify(change)
	return cerr
}

// watch waits for the socket to die. A deliberate close resolves through
// cl.done with no error; anything else is classified here.
func (m *Manager) watch(cl *client, gen uint64) {
	defer m.wg.Done()

	select {
	case <-cl.done:
	case err := <-cl.errs:
		m.handleSocketError(cl, gen, err)
	}
}

// handleSocketError reacts to an unexpected read failure: clean closes (and
// closes with auto-reconnect off) land on disconnected, everything else
// starts the reconnect cycle.
func (m *Manager) handleSocketError(cl *client, gen uint64, err error) {
	cl.close()

	m.mu.Lock()
	if m.generation != gen || m.stopped {
		m.mu.Unlock()
		return
	}
	if m.client == cl {
		m.client = nil
	}

	var change StatusChange
	clean := websocket.IsCloseError(err, websocket.CloseNormalClosure)
	if clean || !m.cfg.AutoReconnect {
		m.attempt = 0
		change = m.setStatusLocked(StatusDisconnected, err.Error())
	} else {
		change = m.scheduleRetryLocked(gen, err.Error())
	}
	m.mu.Unlock()

	m.notify(change)
	m.logger.Warn("connection lost", "error", err, "clean", clean)
}

// scheduleRetryLocked arms the next reconnect attempt, or lands on the
// terminal error status once attempts are exhausted. Caller holds mu.
func (m *Manager) scheduleRetryLocked(gen uint64, msg string) StatusChange {
	m.attempt++
	if m.attempt > m.cfg.MaxReconnectAttempts {
		m.retryTimer = nil
		return m.setStatusLocked(StatusError, "reconnect attempts exhausted: "+msg)
	}

	delay := m.cfg.Policy.Delay(m.attempt)
	change := m.setStatusLocked(StatusReconnecting, msg)
	m.retryTimer = time.AfterFunc(delay, func() {
		m.retryFire(gen)
	})
	return change
}

// retryFire runs when the reconnect timer elapses. The generation check
// makes a timer that raced an intervening Disconnect or Connect a no-op.
func (m *Manager) retryFire(gen uint64) {
	m.mu.Lock()
	if m.generation != gen || m.stopped || m.status != StatusReconnecting {
		m.mu.Unlock()
		return
	}
	change := m.setStatusLocked(StatusConnecting, "")
	done := make(chan struct{})
	m.attemptDone = done
	m.mu.Unlock()
	m.notify(change)

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.HandshakeTimeout)
	err := m.open(ctx, gen)
	cancel()

	m.mu.Lock()
	m.attemptErr = err
	if m.attemptDone == done {
		m.attemptDone = nil
	}
	failed := err != nil && !errors.Is(err, ErrSuperseded) &&
		m.generation == gen && !m.stopped
	if failed {
		change = m.scheduleRetryLocked(gen, err.Error())
	}
	m.mu.Unlock()
	close(done)

	if failed {
		m.notify(change)
	}
}

// setStatusLocked updates the status field and returns the change for the
// caller to publish after releasing mu, so observer callbacks never run
// under the manager lock.
func (m *Manager) setStatusLocked(st Status, msg string) StatusChange {
	m.status = st
	return StatusChange{Status: st, Message: msg}
}

func (m *Manager) notify(change StatusChange) {
	m.registry.Notify(subs.CategoryConnState, "", change)
}

func (m *Manager) cancelRetryLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}
