package core

const defaultSessionBuffer = 32

// Session is one live connection as seen by the hub.
type Session struct {
	ID     string
	Events chan *Event
}

// NewSession constructs a session with a buffered outbound channel.
// The hub closes Events once the session is disconnected or the hub stops.
func NewSession(id string, buffer int) *Session {
	if buffer <= 0 {
		buffer = defaultSessionBuffer
	}
	return &Session{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}
