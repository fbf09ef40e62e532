package queue

import (
	"fmt"
	"testing"
)

func TestDrainPreservesOrder(t *testing.T) {
	q := New()
	for i := 0; i < 5; i++ {
		q.Enqueue([]byte(fmt.Sprintf("frame-%d", i)))
	}

	frames := q.DrainInOrder()
	if len(frames) != 5 {
		t.Fatalf("drained %d frames, want 5", len(frames))
	}
	for i, f := range frames {
		want := fmt.Sprintf("frame-%d", i)
		if string(f) != want {
			t.Errorf("frame[%d] = %q, want %q", i, f, want)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Len() = %d after drain, want 0", q.Len())
	}
}

func TestNoDeduplication(t *testing.T) {
	q := New()
	q.Enqueue([]byte(`{"type":"subscribe:session","session_id":"s1"}`))
	q.Enqueue([]byte(`{"type":"subscribe:session","session_id":"s1"}`))

	if got := len(q.DrainInOrder()); got != 2 {
		t.Errorf("drained %d frames, want 2 (duplicates must both replay)", got)
	}
}

func TestRequeueGoesToHead(t *testing.T) {
	q := New()
	q.Enqueue([]byte("a"))
	q.Enqueue([]byte("b"))
	q.Enqueue([]byte("c"))

	drained := q.DrainInOrder()
	// A send of the first frame succeeded; the rest failed and must come
	// back ahead of frames enqueued in the meantime.
	q.Enqueue([]byte("d"))
	q.Requeue(drained[1:])

	want := []string{"b", "c", "d"}
	frames := q.DrainInOrder()
	if len(frames) != len(want) {
		t.Fatalf("drained %d frames, want %d", len(frames), len(want))
	}
	for i, w := range want {
		if string(frames[i]) != w {
			t.Errorf("frame[%d] = %q, want %q", i, frames[i], w)
		}
	}
}

func TestRequeueEmpty(t *testing.T) {
	q := New()
	q.Requeue(nil)
	if q.Len() != 0 {
		t.Errorf("Len() = %d after empty Requeue, want 0", q.Len())
	}
}

func TestClear(t *testing.T) {
	q := New()
	q.Enqueue([]byte("a"))
	q.Enqueue([]byte("b"))
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", q.Len())
	}
	if frames := q.DrainInOrder(); frames != nil {
		t.Errorf("DrainInOrder() = %v after Clear, want nil", frames)
	}
}

func TestDrainEmpty(t *testing.T) {
	q := New()
	if frames := q.DrainInOrder(); frames != nil {
		t.Errorf("DrainInOrder() on empty queue = %v, want nil", frames)
	}
}
