package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeJoin        = "join"
	InboundTypeMessage     = "message"
	InboundTypeTypingStart = "typing-start"
	InboundTypeTypingStop  = "typing-stop"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventUserJoined        = "user-joined"
	EventRosterSnapshot    = "roster-snapshot"
	EventChatMessage       = "chat-message"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventUserLeft          = "user-left"

	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeRateLimited    = "rate_limited"
)

// JoinData attaches a display name to the connection.
type JoinData struct {
	Name string `json:"name"`
}

// MessageData is a chat message from the client.
type MessageData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventUser names the user a presence or typing event is about.
type EventUser struct {
	User string `json:"user"`
}

// EventRoster lists the display names of every joined session.
type EventRoster struct {
	Users []string `json:"users"`
}

// EventMessage is a chat message relayed from another user.
type EventMessage struct {
	Text string `json:"text"`
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// NewInbound builds an envelope, encoding data when it is non-nil.
func NewInbound(kind string, data any) (Inbound, error) {
	in := Inbound{Type: kind}
	if data == nil {
		return in, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return in, err
	}
	in.Data = raw
	return in, nil
}

// OutboundFrame is the decoding counterpart of Outbound used by clients.
type OutboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}
