package core

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func TestHubJoinMessageAndDisconnect(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a", 0)
	bob := NewSession("b", 0)
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alice"})
	mustRoster(t, alice.Events, "alice")
	joinEv := mustEvent(t, bob.Events, EventUserJoined)
	if joinEv.User != "alice" {
		t.Fatalf("unexpected join event: %+v", joinEv)
	}
	mustRoster(t, bob.Events, "alice")

	hub.Dispatch(bob, Command{Kind: CommandJoin, Name: "bob"})
	if ev := mustEvent(t, alice.Events, EventUserJoined); ev.User != "bob" {
		t.Fatalf("unexpected join event: %+v", ev)
	}
	mustRoster(t, alice.Events, "alice", "bob")
	mustRoster(t, bob.Events, "alice", "bob")

	hub.Dispatch(alice, Command{Kind: CommandSendMessage, Text: "hi"})
	msgEv := mustEvent(t, bob.Events, EventChatMessage)
	if msgEv.Message.Text != "hi" || msgEv.Message.From != "alice" {
		t.Fatalf("unexpected message event: %+v", msgEv)
	}

	hub.UnregisterSession(bob)
	// Alice never sees her own message: the next thing she gets is bob leaving.
	if ev := mustEvent(t, alice.Events, EventUserLeft); ev.User != "bob" {
		t.Fatalf("unexpected leave event: %+v", ev)
	}
	mustRoster(t, alice.Events, "alice")
	expectClosed(t, bob.Events)
}

func TestHubIgnoresBlankJoin(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a", 0)
	bob := NewSession("b", 0)
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	for _, name := range []string{"", "   ", "\t\n"} {
		hub.Dispatch(alice, Command{Kind: CommandJoin, Name: name})
	}
	hub.Dispatch(bob, Command{Kind: CommandJoin, Name: "bob"})

	// The first thing alice sees is bob's join; the blank joins emitted nothing.
	if ev := mustEvent(t, alice.Events, EventUserJoined); ev.User != "bob" {
		t.Fatalf("unexpected join event: %+v", ev)
	}
	mustRoster(t, alice.Events, "bob")
	mustRoster(t, bob.Events, "bob")
}

func TestHubTrimsDisplayName(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a", 0)
	hub.RegisterSession(alice)
	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "  alice  "})

	mustRoster(t, alice.Events, "alice")
}

func TestHubRejoinOverwritesName(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a", 0)
	bob := NewSession("b", 0)
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alice"})
	mustRoster(t, alice.Events, "alice")
	hub.Dispatch(bob, Command{Kind: CommandJoin, Name: "bob"})
	mustEvent(t, alice.Events, EventUserJoined)
	mustRoster(t, alice.Events, "alice", "bob")

	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alicia"})
	// Rename keeps alice's original position.
	mustRoster(t, alice.Events, "alicia", "bob")

	hub.Dispatch(alice, Command{Kind: CommandSendMessage, Text: "renamed"})
	for {
		ev := nextEvent(t, bob.Events)
		if ev.Kind == EventChatMessage {
			if ev.Message.From != "alicia" {
				t.Fatalf("message attributed to %q, want alicia", ev.Message.From)
			}
			break
		}
	}
}

func TestHubDuplicateDisplayNamesAllowed(t *testing.T) {
	hub := startHub(t)

	first := NewSession("1", 0)
	second := NewSession("2", 0)
	hub.RegisterSession(first)
	hub.RegisterSession(second)

	hub.Dispatch(first, Command{Kind: CommandJoin, Name: "sam"})
	mustRoster(t, first.Events, "sam")
	hub.Dispatch(second, Command{Kind: CommandJoin, Name: "sam"})
	mustEvent(t, first.Events, EventUserJoined)
	mustRoster(t, first.Events, "sam", "sam")
}

func TestHubDisconnectBeforeJoin(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a", 0)
	lurker := NewSession("l", 0)
	hub.RegisterSession(alice)
	hub.RegisterSession(lurker)
	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alice"})
	mustRoster(t, alice.Events, "alice")

	hub.UnregisterSession(lurker)
	// No user-left for a nameless session, only the roster refresh.
	mustRoster(t, alice.Events, "alice")
	expectClosed(t, lurker.Events)

	// The lurker no longer receives broadcasts and a second disconnect is a no-op.
	hub.UnregisterSession(lurker)
	hub.Dispatch(alice, Command{Kind: CommandStartTyping})
	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alice"})
	mustRoster(t, alice.Events, "alice")
}

func TestHubMessagesFromUnjoinedSessionAreDropped(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a", 0)
	anon := NewSession("x", 0)
	hub.RegisterSession(alice)
	hub.RegisterSession(anon)
	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alice"})
	mustRoster(t, alice.Events, "alice")

	hub.Dispatch(anon, Command{Kind: CommandSendMessage, Text: "boo"})
	hub.Dispatch(anon, Command{Kind: CommandStartTyping})
	hub.Dispatch(anon, Command{Kind: CommandStopTyping})
	hub.Dispatch(anon, Command{Kind: CommandJoin, Name: "anon"})

	if ev := mustEvent(t, alice.Events, EventUserJoined); ev.User != "anon" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestHubTypingSignals(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a", 0)
	bob := NewSession("b", 0)
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)
	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alice"})
	hub.Dispatch(bob, Command{Kind: CommandJoin, Name: "bob"})
	mustRoster(t, alice.Events, "alice")
	mustEvent(t, alice.Events, EventUserJoined)
	mustRoster(t, alice.Events, "alice", "bob")
	mustEvent(t, bob.Events, EventUserJoined)
	mustRoster(t, bob.Events, "alice")
	mustRoster(t, bob.Events, "alice", "bob")

	hub.Dispatch(alice, Command{Kind: CommandStartTyping})
	hub.Dispatch(alice, Command{Kind: CommandStopTyping})

	if ev := mustEvent(t, bob.Events, EventUserTyping); ev.User != "alice" {
		t.Fatalf("unexpected typing event: %+v", ev)
	}
	mustEvent(t, bob.Events, EventUserStoppedTyping)
	expectNoEvent(t, alice.Events)
}

func TestHubRosterMatchesJoinedSessions(t *testing.T) {
	hub := startHub(t)

	observer := NewSession("observer", 256)
	hub.RegisterSession(observer)

	sessions := make([]*Session, 5)
	for i := range sessions {
		sessions[i] = NewSession(fmt.Sprintf("s%d", i), 256)
		hub.RegisterSession(sessions[i])
	}

	want := []string{}
	steps := []struct {
		join bool
		idx  int
	}{
		{true, 0}, {true, 1}, {true, 2}, {false, 1}, {true, 3}, {false, 0}, {true, 4}, {false, 4}, {false, 2},
	}

	for _, step := range steps {
		s := sessions[step.idx]
		name := "user" + s.ID
		if step.join {
			hub.Dispatch(s, Command{Kind: CommandJoin, Name: name})
			want = append(want, name)
		} else {
			hub.UnregisterSession(s)
			for i, n := range want {
				if n == name {
					want = append(want[:i], want[i+1:]...)
					break
				}
			}
		}

		for {
			ev := nextEvent(t, observer.Events)
			if ev.Kind != EventRoster {
				continue
			}
			got := ev.Users
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("after %+v roster = %v, want %v", step, got, want)
			}
			break
		}
	}
}

func TestHubDropsEventsForFullBuffer(t *testing.T) {
	hub := startHub(t)

	slow := NewSession("slow", 1)
	fast := NewSession("fast", 64)
	hub.RegisterSession(slow)
	hub.RegisterSession(fast)
	hub.Dispatch(fast, Command{Kind: CommandJoin, Name: "fast"})
	mustRoster(t, fast.Events, "fast")

	for i := 0; i < 10; i++ {
		hub.Dispatch(fast, Command{Kind: CommandSendMessage, Text: fmt.Sprint(i)})
	}
	hub.Dispatch(fast, Command{Kind: CommandJoin, Name: "fast"})
	// The hub kept running despite the stalled recipient.
	mustRoster(t, fast.Events, "fast")

	if got := len(slow.Events); got != 1 {
		t.Fatalf("slow session buffered %d events, want 1", got)
	}
}

func TestHubRunClosesSessionsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	alice := NewSession("a", 0)
	hub.RegisterSession(alice)
	hub.Dispatch(alice, Command{Kind: CommandJoin, Name: "alice"})
	mustRoster(t, alice.Events, "alice")

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("hub did not stop")
	}
	expectClosed(t, alice.Events)

	// Dispatch after shutdown must not block.
	done := make(chan struct{})
	go func() {
		hub.Dispatch(alice, Command{Kind: CommandSendMessage, Text: "late"})
		hub.UnregisterSession(alice)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatch blocked after shutdown")
	}
}

func TestHubRejectsSessionsAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	late := NewSession("late", 0)
	if hub.RegisterSession(late) {
		t.Fatalf("registration accepted after shutdown")
	}
	if hub.Dispatch(late, Command{Kind: CommandJoin, Name: "late"}) {
		t.Fatalf("command accepted after shutdown")
	}
}

func TestHubShutdownClosesQueuedConnects(t *testing.T) {
	hub := NewHub(nil)

	// Queued before Run ever reads the inbox.
	queued := NewSession("queued", 0)
	if !hub.RegisterSession(queued) {
		t.Fatalf("registration rejected before shutdown")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	expectClosed(t, queued.Events)
}
