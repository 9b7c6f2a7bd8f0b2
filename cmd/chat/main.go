package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/presence-chat/internal/client"
	applog "github.com/vovakirdan/presence-chat/internal/log"
	"github.com/vovakirdan/presence-chat/internal/proto"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr       string
		name       string
		typingIdle time.Duration
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Terminal client for the presence chat hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := applog.NewWithWriter(os.Stderr, logLevel)

			dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			c, err := client.Dial(dialCtx, addr, client.Options{TypingIdle: typingIdle, Logger: logger})
			cancel()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Join(ctx, name); err != nil {
				return fmt.Errorf("join: %w", err)
			}

			fmt.Printf("Connected to %s as %s\n", addr, strings.TrimSpace(name))
			fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

			done := make(chan struct{})
			go func() {
				defer close(done)
				printEvents(c.Events())
			}()

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-done:
					fmt.Println("disconnected")
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					// Line input has no per-key events; a line counts as one burst of typing.
					c.Keystroke()
					if err := c.Send(ctx, line); err != nil {
						return err
					}
				}
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "ws://localhost:8080/ws", "WebSocket address")
	flags.StringVar(&name, "name", "cli-user", "display name")
	flags.DurationVar(&typingIdle, "typing-idle", client.DefaultTypingIdle, "idle time before typing-stop is sent")
	flags.StringVar(&logLevel, "log-level", "warn", "log level")
	return cmd
}

func printEvents(events <-chan proto.OutboundFrame) {
	for frame := range events {
		if frame.Type == proto.OutboundTypeError {
			if frame.Error != nil {
				fmt.Printf("! %s: %s\n", frame.Error.Code, frame.Error.Msg)
			}
			continue
		}

		switch frame.Event {
		case proto.EventUserJoined:
			var evt proto.EventUser
			if decode(frame, &evt) {
				fmt.Printf("* %s joined\n", evt.User)
			}
		case proto.EventUserLeft:
			var evt proto.EventUser
			if decode(frame, &evt) {
				fmt.Printf("* %s left\n", evt.User)
			}
		case proto.EventRosterSnapshot:
			var evt proto.EventRoster
			if decode(frame, &evt) {
				fmt.Printf("* online: %s\n", strings.Join(evt.Users, ", "))
			}
		case proto.EventChatMessage:
			var evt proto.EventMessage
			if decode(frame, &evt) {
				fmt.Printf("%s: %s\n", evt.User, evt.Text)
			}
		case proto.EventUserTyping:
			var evt proto.EventUser
			if decode(frame, &evt) {
				fmt.Printf("  (%s is typing...)\n", evt.User)
			}
		case proto.EventUserStoppedTyping:
			// Carries no user; nothing useful to print.
		default:
			fmt.Printf("event=%s data=%s\n", frame.Event, frame.Data)
		}
	}
}

func decode(frame proto.OutboundFrame, v any) bool {
	if err := client.Decode(frame, v); err != nil {
		fmt.Fprintf(os.Stderr, "decode %s: %v\n", frame.Event, err)
		return false
	}
	return true
}
