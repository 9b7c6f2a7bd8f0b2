// Package core holds the presence and broadcast hub: it tracks connected
// sessions, keeps the roster of display names and fans chat, typing and
// presence events out to every other session.
package core

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-chat/internal/metrics"
)

const inboxSize = 256

type envelope struct {
	session *Session
	cmd     Command
}

type handlerFunc func(h *Hub, s *Session, cmd Command)

// handlers is the dispatch table for inbound commands.
var handlers = map[CommandKind]handlerFunc{
	CommandConnect:     (*Hub).handleConnect,
	CommandJoin:        (*Hub).handleJoin,
	CommandSendMessage: (*Hub).handleSendMessage,
	CommandStartTyping: (*Hub).handleStartTyping,
	CommandStopTyping:  (*Hub).handleStopTyping,
	CommandDisconnect:  (*Hub).handleDisconnect,
}

// Hub owns the session set and the roster. All state is touched only by the
// goroutine running Run, one inbound command at a time.
type Hub struct {
	inbox    chan envelope
	done     chan struct{}
	mu       sync.RWMutex // guards closed against in-flight Dispatch calls
	closed   bool
	sessions map[string]*Session
	roster   *Roster
	log      *zerolog.Logger
}

// NewHub creates a hub. A nil logger discards output.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		inbox:    make(chan envelope, inboxSize),
		done:     make(chan struct{}),
		sessions: make(map[string]*Session),
		roster:   NewRoster(),
		log:      logger,
	}
}

// RegisterSession makes the session a broadcast recipient. It reports false
// once the hub has stopped; the session's Events channel is then never used.
func (h *Hub) RegisterSession(s *Session) bool {
	return h.Dispatch(s, Command{Kind: CommandConnect})
}

// UnregisterSession removes the session after its transport closed.
func (h *Hub) UnregisterSession(s *Session) {
	h.Dispatch(s, Command{Kind: CommandDisconnect})
}

// Dispatch queues an inbound command and reports whether it was accepted.
// Commands from one session are handled in the order they were dispatched.
// Once the hub stops, Dispatch returns false without blocking.
func (h *Hub) Dispatch(s *Session, cmd Command) bool {
	if s == nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	select {
	case h.inbox <- envelope{session: s, cmd: cmd}:
		return true
	case <-h.done:
		return false
	}
}

// Run processes inbound commands until ctx is cancelled, then closes the
// outbound channel of every remaining session.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-h.inbox:
			h.handle(env.session, env.cmd)
		}
	}
}

func (h *Hub) handle(s *Session, cmd Command) {
	handler, ok := handlers[cmd.Kind]
	if !ok {
		h.log.Debug().Str("session_id", s.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
		return
	}
	metrics.InboundEvents.WithLabelValues(cmd.Kind.String()).Inc()
	handler(h, s, cmd)
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	// Connects accepted but never handled still hand their session a channel
	// that must be closed.
drain:
	for {
		select {
		case env := <-h.inbox:
			if env.cmd.Kind != CommandConnect {
				continue
			}
			if _, ok := h.sessions[env.session.ID]; !ok {
				h.sessions[env.session.ID] = env.session
			}
		default:
			break drain
		}
	}

	for id, s := range h.sessions {
		close(s.Events)
		delete(h.sessions, id)
	}
	metrics.Sessions.Set(0)
	metrics.RosterSize.Set(0)
	h.log.Info().Msg("hub stopped")
}

func (h *Hub) handleConnect(s *Session, _ Command) {
	if _, exists := h.sessions[s.ID]; exists {
		return
	}
	h.sessions[s.ID] = s
	metrics.Sessions.Set(float64(len(h.sessions)))
	h.log.Debug().Str("session_id", s.ID).Int("sessions", len(h.sessions)).Msg("session connected")
}

func (h *Hub) handleJoin(s *Session, cmd Command) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		h.log.Debug().Str("session_id", s.ID).Msg("ignoring join with empty name")
		return
	}
	if _, ok := h.sessions[s.ID]; !ok {
		h.log.Debug().Str("session_id", s.ID).Msg("ignoring join from unknown session")
		return
	}

	h.roster.Set(s.ID, name)
	metrics.RosterSize.Set(float64(h.roster.Len()))
	h.log.Info().Str("session_id", s.ID).Str("user", name).Msg("user joined")

	h.broadcast(&Event{Kind: EventUserJoined, User: name}, s)
	h.broadcastRoster()
}

func (h *Hub) handleSendMessage(s *Session, cmd Command) {
	name, ok := h.roster.Name(s.ID)
	if !ok {
		h.log.Debug().Str("session_id", s.ID).Msg("ignoring message from session without name")
		return
	}
	h.broadcast(&Event{
		Kind:    EventChatMessage,
		User:    name,
		Message: Message{Text: cmd.Text, From: name},
	}, s)
}

func (h *Hub) handleStartTyping(s *Session, _ Command) {
	name, ok := h.roster.Name(s.ID)
	if !ok {
		return
	}
	h.broadcast(&Event{Kind: EventUserTyping, User: name}, s)
}

func (h *Hub) handleStopTyping(s *Session, _ Command) {
	if _, ok := h.roster.Name(s.ID); !ok {
		return
	}
	h.broadcast(&Event{Kind: EventUserStoppedTyping}, s)
}

func (h *Hub) handleDisconnect(s *Session, _ Command) {
	registered, ok := h.sessions[s.ID]
	if !ok {
		return
	}
	delete(h.sessions, s.ID)
	close(registered.Events)
	metrics.Sessions.Set(float64(len(h.sessions)))

	name, joined := h.roster.Remove(s.ID)
	metrics.RosterSize.Set(float64(h.roster.Len()))
	if joined {
		h.log.Info().Str("session_id", s.ID).Str("user", name).Msg("user left")
		h.broadcast(&Event{Kind: EventUserLeft, User: name}, nil)
	} else {
		h.log.Debug().Str("session_id", s.ID).Msg("session disconnected before join")
	}
	h.broadcastRoster()
}

func (h *Hub) broadcastRoster() {
	h.broadcast(&Event{Kind: EventRoster, Users: h.roster.Snapshot()}, nil)
}

// broadcast enqueues ev to every registered session except the given one.
func (h *Hub) broadcast(ev *Event, except *Session) {
	for id, s := range h.sessions {
		if except != nil && id == except.ID {
			continue
		}
		h.deliver(s, ev)
	}
}

// deliver never blocks; a full session buffer drops the event.
func (h *Hub) deliver(s *Session, ev *Event) {
	select {
	case s.Events <- ev:
		metrics.Deliveries.WithLabelValues(ev.Kind.String()).Inc()
	default:
		metrics.DroppedDeliveries.Inc()
		h.log.Warn().Str("session_id", s.ID).Str("event", ev.Kind.String()).Msg("dropping event for slow session")
	}
}
