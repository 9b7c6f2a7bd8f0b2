package core

// CommandKind describes what a session asks the hub to do.
type CommandKind int

const (
	// CommandConnect registers a transport connection with the hub.
	CommandConnect CommandKind = iota
	// CommandJoin attaches a display name to the session.
	CommandJoin
	// CommandSendMessage relays a chat message to the other sessions.
	CommandSendMessage
	// CommandStartTyping announces that the session's user is typing.
	CommandStartTyping
	// CommandStopTyping announces that the session's user stopped typing.
	CommandStopTyping
	// CommandDisconnect removes the session after its connection closed.
	CommandDisconnect
)

var commandNames = [...]string{
	CommandConnect:     "connect",
	CommandJoin:        "join",
	CommandSendMessage: "message",
	CommandStartTyping: "typing-start",
	CommandStopTyping:  "typing-stop",
	CommandDisconnect:  "disconnect",
}

func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[k]
}

// Command represents an inbound event from a session.
type Command struct {
	Kind CommandKind
	Name string // CommandJoin
	Text string // CommandSendMessage
}
