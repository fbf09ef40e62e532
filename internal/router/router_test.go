package router

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shellmux/shellmux/internal/conn"
	"github.com/shellmux/shellmux/internal/protocol"
	"github.com/shellmux/shellmux/internal/session"
	"github.com/shellmux/shellmux/internal/subs"
)

func newTestRouter() (*Router, chan conn.Frame, *session.Store, *subs.Registry) {
	input := make(chan conn.Frame, 16)
	store := session.NewStore(0)
	registry := subs.NewRegistry()
	r := NewRouter(input, store, registry, slog.Default())
	return r, input, store, registry
}

func frame(s string) conn.Frame {
	return conn.Frame{Data: []byte(s), ReceivedAt: time.Now()}
}

func TestOutputEventAppendsAndNotifies(t *testing.T) {
	r, input, store, registry := newTestRouter()

	store.Upsert(session.Session{ID: "s1", Status: session.Connected})

	got := make(chan protocol.OutputEvent, 1)
	registry.Subscribe(subs.CategoryOutput, "s1", func(event any) {
		got <- event.(protocol.OutputEvent)
	})

	r.Start()
	input <- frame(`{"type":"session:output","data":{"session_id":"s1","data":"hello\n"}}`)
	close(input)
	r.Stop()

	select {
	case ev := <-got:
		if ev.Data != "hello\n" {
			t.Errorf("event data = %q, want %q", ev.Data, "hello\n")
		}
	default:
		t.Fatal("output subscriber not notified")
	}

	entry, ok := store.Get("s1")
	if !ok {
		t.Fatal("session missing from store")
	}
	if len(entry.Output) != 1 || entry.Output[0] != "hello\n" {
		t.Errorf("store output = %v, want one line", entry.Output)
	}
}

func TestStatusEventUpdatesStoreAndNotifiesWildcard(t *testing.T) {
	r, input, store, registry := newTestRouter()

	store.Upsert(session.Session{ID: "s1", Status: session.Connecting})

	got := make(chan protocol.StatusEvent, 1)
	registry.Subscribe(subs.CategoryStatus, subs.Wildcard, func(event any) {
		got <- event.(protocol.StatusEvent)
	})

	r.Start()
	input <- frame(`{"type":"session:status","data":{"session_id":"s1","status":"connected"}}`)
	close(input)
	r.Stop()

	select {
	case ev := <-got:
		if ev.SessionID != "s1" {
			t.Errorf("event session = %q, want s1", ev.SessionID)
		}
	default:
		t.Fatal("wildcard status subscriber not notified")
	}

	entry, _ := store.Get("s1")
	if entry.Session.Status != session.Connected {
		t.Errorf("store status = %v, want connected", entry.Session.Status)
	}
}

func TestUnknownKindSurfacesAsProtocolError(t *testing.T) {
	r, input, _, registry := newTestRouter()

	got := make(chan protocol.ErrorEvent, 2)
	registry.Subscribe(subs.CategoryProtocolError, "", func(event any) {
		got <- event.(protocol.ErrorEvent)
	})

	r.Start()
	input <- frame(`{"type":"session:banana","data":{}}`)
	input <- frame(`not json at all`)
	close(input)
	r.Stop()

	if len(got) != 2 {
		t.Fatalf("protocol error events = %d, want 2", len(got))
	}
	ev := <-got
	if ev.Code != protocol.CodeUnknownMessage {
		t.Errorf("code = %q, want %q", ev.Code, protocol.CodeUnknownMessage)
	}
	ev = <-got
	if ev.Code != protocol.CodeMalformedFrame {
		t.Errorf("code = %q, want %q", ev.Code, protocol.CodeMalformedFrame)
	}
	if st := r.Stats(); st.ProtocolErrors != 2 {
		t.Errorf("stats protocol errors = %d, want 2", st.ProtocolErrors)
	}
}

func TestCompleteResolvesPendingCommand(t *testing.T) {
	r, input, _, _ := newTestRouter()

	ch := r.RegisterPending("cmd_abc", "s1")

	r.Start()
	input <- frame(`{"type":"command:complete","data":{"request_id":"cmd_abc","session_id":"s1","exit_code":0,"output":"ok\n"}}`)
	close(input)
	r.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.ExitCode != 0 || res.Output != "ok\n" {
			t.Errorf("result = %+v", res)
		}
	default:
		t.Fatal("pending command not resolved")
	}

	if st := r.Stats(); st.PendingCommands != 0 {
		t.Errorf("pending after completion = %d, want 0", st.PendingCommands)
	}
}

func TestUnmatchedCompleteStillNotifiesObservers(t *testing.T) {
	r, input, _, registry := newTestRouter()

	got := make(chan protocol.CompleteEvent, 1)
	registry.Subscribe(subs.CategoryCommand, subs.Wildcard, func(event any) {
		got <- event.(protocol.CompleteEvent)
	})

	r.Start()
	input <- frame(`{"type":"command:complete","data":{"request_id":"cmd_gone","session_id":"s1","exit_code":1}}`)
	close(input)
	r.Stop()

	select {
	case ev := <-got:
		if ev.RequestID != "cmd_gone" || ev.ExitCode != 1 {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("observers not notified for unmatched completion")
	}
}

func TestFailPendingDeliversErrorToAllWaiters(t *testing.T) {
	r, _, _, _ := newTestRouter()

	var chans []<-chan CommandResult
	for i := 0; i < 3; i++ {
		chans = append(chans, r.RegisterPending(fmt.Sprintf("cmd_%d", i), "s1"))
	}

	want := errors.New("connection lost")
	r.FailPending(want)

	for i, ch := range chans {
		select {
		case res := <-ch:
			if !errors.Is(res.Err, want) {
				t.Errorf("waiter %d err = %v, want %v", i, res.Err, want)
			}
		default:
			t.Fatalf("waiter %d not failed", i)
		}
	}
	if st := r.Stats(); st.PendingCommands != 0 {
		t.Errorf("pending after fail = %d, want 0", st.PendingCommands)
	}
}

func TestCancelPendingDropsEntryWithoutResult(t *testing.T) {
	r, input, _, _ := newTestRouter()

	ch := r.RegisterPending("cmd_x", "s1")
	r.CancelPending("cmd_x")

	r.Start()
	input <- frame(`{"type":"command:complete","data":{"request_id":"cmd_x","session_id":"s1","exit_code":0}}`)
	close(input)
	r.Stop()

	select {
	case res := <-ch:
		t.Fatalf("cancelled command received result: %+v", res)
	default:
	}
}

func TestReleasedSubscriberStopsReceiving(t *testing.T) {
	r, input, _, registry := newTestRouter()

	kept := make(chan struct{}, 4)
	released := make(chan struct{}, 4)
	registry.Subscribe(subs.CategoryOutput, "s1", func(any) { kept <- struct{}{} })
	sub := registry.Subscribe(subs.CategoryOutput, "s1", func(any) { released <- struct{}{} })
	sub.Release()

	r.Start()
	input <- frame(`{"type":"session:output","data":{"session_id":"s1","data":"x"}}`)
	close(input)
	r.Stop()

	if len(kept) != 1 {
		t.Errorf("kept subscriber events = %d, want 1", len(kept))
	}
	if len(released) != 0 {
		t.Errorf("released subscriber events = %d, want 0", len(released))
	}
}
