package core

// Message is a transient chat message; it is never stored.
type Message struct {
	Text string
	From string
}
