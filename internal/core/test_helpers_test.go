package core

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

// nextEvent returns the next event queued for a session.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
		return nil
	}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	ev := nextEvent(t, ch)
	if ev.Kind != kind {
		t.Fatalf("expected event %v, got %v (%+v)", kind, ev.Kind, ev)
	}
	return ev
}

func mustRoster(t *testing.T, ch <-chan *Event, want ...string) {
	t.Helper()

	ev := mustEvent(t, ch, EventRoster)
	if want == nil {
		want = []string{}
	}
	if !reflect.DeepEqual(ev.Users, want) {
		t.Fatalf("roster = %v, want %v", ev.Users, want)
	}
}

func expectNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %v (%+v)", ev.Kind, ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func expectClosed(t *testing.T, ch <-chan *Event) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("event channel not closed")
		}
	}
}
