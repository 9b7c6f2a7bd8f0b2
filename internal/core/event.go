package core

// EventKind is a notification the hub emits to sessions.
type EventKind int

const (
	// EventUserJoined tells the other sessions that a user joined.
	EventUserJoined EventKind = iota
	// EventRoster carries the full list of joined display names.
	EventRoster
	// EventChatMessage relays a chat message from another user.
	EventChatMessage
	// EventUserTyping tells the other sessions that a user is typing.
	EventUserTyping
	// EventUserStoppedTyping clears the typing indicator.
	EventUserStoppedTyping
	// EventUserLeft tells the remaining sessions that a user left.
	EventUserLeft
)

var eventNames = [...]string{
	EventUserJoined:        "user-joined",
	EventRoster:            "roster-snapshot",
	EventChatMessage:       "chat-message",
	EventUserTyping:        "user-typing",
	EventUserStoppedTyping: "user-stopped-typing",
	EventUserLeft:          "user-left",
}

// String returns the wire name of the event.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is sent to sessions to describe what happened.
// A single Event value is shared by every recipient of a broadcast and must
// be treated as read-only.
type Event struct {
	Kind    EventKind
	User    string   // joined, typing, left
	Users   []string // roster snapshot
	Message Message  // chat message
}
