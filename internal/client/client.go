// Package client is a Go client for the presence hub's WebSocket protocol.
// It owns the typing debounce timer so the hub never has to.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-chat/internal/proto"
)

// ErrEmptyName is returned by Join for a blank display name.
var ErrEmptyName = errors.New("display name is empty")

// Options tunes a Client.
type Options struct {
	TypingIdle time.Duration
	Buffer     int
	Logger     *zerolog.Logger
}

// Client is one chat session.
type Client struct {
	conn   *websocket.Conn
	typing *Debouncer
	events chan proto.OutboundFrame
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	log    *zerolog.Logger
}

// Dial connects to the hub's WebSocket endpoint (ws://host/ws).
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 64
	}

	lifetime, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:   conn,
		events: make(chan proto.OutboundFrame, buffer),
		ctx:    lifetime,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    logger,
	}
	c.typing = NewDebouncer(opts.TypingIdle,
		func() { c.emitAsync(proto.InboundTypeTypingStart) },
		func() { c.emitAsync(proto.InboundTypeTypingStop) },
	)

	go c.readLoop()
	return c, nil
}

// Events delivers decoded frames from the hub. It is closed when the
// connection ends.
func (c *Client) Events() <-chan proto.OutboundFrame {
	return c.events
}

// Join announces the display name for this session.
func (c *Client) Join(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return c.emit(ctx, proto.InboundTypeJoin, proto.JoinData{Name: name})
}

// Send posts a chat message and ends the typing indicator. Blank text is ignored.
func (c *Client) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := c.emit(ctx, proto.InboundTypeMessage, proto.MessageData{Text: text}); err != nil {
		return err
	}
	// Sending ends typing at once; the pending idle timer is dropped.
	c.typing.Flush()
	return nil
}

// Keystroke reports local input activity; typing-stop follows once input
// has been idle for the configured window.
func (c *Client) Keystroke() {
	c.typing.Keystroke()
}

// Close cancels pending typing signals and closes the connection.
func (c *Client) Close() error {
	c.typing.Cancel()
	err := c.conn.Close(websocket.StatusNormalClosure, "bye")
	c.cancel()
	<-c.done
	return err
}

func (c *Client) emit(ctx context.Context, kind string, data any) error {
	in, err := proto.NewInbound(kind, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := wsjson.Write(ctx, c.conn, in); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

// emitAsync is used from timer callbacks, which have no caller context.
func (c *Client) emitAsync(kind string) {
	if err := c.emit(c.ctx, kind, nil); err != nil && c.ctx.Err() == nil {
		c.log.Warn().Err(err).Str("type", kind).Msg("typing signal not sent")
	}
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		var frame proto.OutboundFrame
		if err := wsjson.Read(c.ctx, c.conn, &frame); err != nil {
			if !isExpectedClose(err) {
				c.log.Warn().Err(err).Msg("read from hub")
			}
			return
		}
		select {
		case c.events <- frame:
		case <-c.ctx.Done():
			return
		}
	}
}

func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// Decode unmarshals an event payload into v.
func Decode(frame proto.OutboundFrame, v any) error {
	if len(frame.Data) == 0 {
		return nil
	}
	return json.Unmarshal(frame.Data, v)
}
