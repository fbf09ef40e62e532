// Package queue implements the outbound frame queue.
//
// Frames sent while the transport is down are held here in FIFO order and
// replayed after the next successful connection completes its auth step.
// There is no deduplication: the daemon is expected to tolerate duplicate
// subscribe/unsubscribe intents.
package queue

import "sync"

// Queue is a thread-safe FIFO buffer of serialized frames.
type Queue struct {
	mu     sync.Mutex
	frames [][]byte
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends a frame to the tail.
func (q *Queue) Enqueue(frame []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frames = append(q.frames, frame)
}

// DrainInOrder removes and returns all queued frames in enqueue order.
func (q *Queue) DrainInOrder() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	frames := q.frames
	q.frames = nil
	return frames
}

// Requeue puts frames back at the head, ahead of anything enqueued since
// they were drained. Used when a replay fails partway: the unsent remainder
// must survive, in order, for the next successful connection.
func (q *Queue) Requeue(frames [][]byte) {
	if len(frames) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frames = append(append([][]byte(nil), frames...), q.frames...)
}

// Clear discards all queued frames.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frames = nil
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}
