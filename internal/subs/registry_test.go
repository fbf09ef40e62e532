package subs

import (
	"testing"
)

func TestExactTopicDispatch(t *testing.T) {
	r := NewRegistry()

	var got []any
	r.Subscribe(CategoryOutput, "s1", func(ev any) { got = append(got, ev) })

	r.Notify(CategoryOutput, "s1", "hello")
	r.Notify(CategoryOutput, "s2", "other")

	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("got %v, want [hello]", got)
	}
}

func TestWildcardReceivesAllSessions(t *testing.T) {
	r := NewRegistry()

	var got []any
	r.Subscribe(CategoryOutput, Wildcard, func(ev any) { got = append(got, ev) })

	r.Notify(CategoryOutput, "s1", "from-s1")
	r.Notify(CategoryOutput, "s2", "from-s2")

	if len(got) != 2 {
		t.Fatalf("wildcard invoked %d times, want 2", len(got))
	}
	if got[0] != "from-s1" || got[1] != "from-s2" {
		t.Errorf("events out of order: %v", got)
	}
}

func TestWildcardDoesNotCrossCategories(t *testing.T) {
	r := NewRegistry()

	calls := 0
	r.Subscribe(CategoryOutput, Wildcard, func(any) { calls++ })

	r.Notify(CategoryStatus, "s1", "status-event")

	if calls != 0 {
		t.Errorf("output wildcard received %d status events, want 0", calls)
	}
}

func TestReleaseRemovesOnlyThatCallback(t *testing.T) {
	r := NewRegistry()

	var a, b int
	subA := r.Subscribe(CategoryOutput, "s1", func(any) { a++ })
	r.Subscribe(CategoryOutput, "s1", func(any) { b++ })

	subA.Release()
	r.Notify(CategoryOutput, "s1", "ev")

	if a != 0 {
		t.Errorf("released callback invoked %d times", a)
	}
	if b != 1 {
		t.Errorf("surviving callback invoked %d times, want 1", b)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe(CategoryStatus, "s1", func(any) {})
	sub.Release()
	sub.Release() // must not panic or remove other state

	if n := r.SubscriberCount(CategoryStatus, "s1"); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
}

func TestConnStateReplayOnSubscribe(t *testing.T) {
	r := NewRegistry()
	r.Notify(CategoryConnState, "", "connected")

	var got []any
	r.Subscribe(CategoryConnState, "", func(ev any) { got = append(got, ev) })

	if len(got) != 1 || got[0] != "connected" {
		t.Errorf("replay got %v, want [connected]", got)
	}

	r.Notify(CategoryConnState, "", "reconnecting")
	if len(got) != 2 || got[1] != "reconnecting" {
		t.Errorf("after transition got %v", got)
	}
}

func TestConnStateNoReplayBeforeFirstStatus(t *testing.T) {
	r := NewRegistry()

	calls := 0
	r.Subscribe(CategoryConnState, "", func(any) { calls++ })

	if calls != 0 {
		t.Errorf("subscriber replayed %d times before any status published", calls)
	}
}

func TestCallbackOrderIsRegistrationOrder(t *testing.T) {
	r := NewRegistry()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		r.Subscribe(CategoryOutput, "s1", func(any) { order = append(order, i) })
	}

	r.Notify(CategoryOutput, "s1", "ev")

	for i, v := range order {
		if v != i {
			t.Fatalf("callback order %v, want registration order", order)
		}
	}
}
