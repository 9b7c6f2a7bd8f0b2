package http

import (
	"encoding/json"

	"github.com/vovakirdan/presence-chat/internal/core"
	"github.com/vovakirdan/presence-chat/internal/proto"
)

// inboundToCommand maps a client frame to a hub command. Undecodable payloads
// and unknown types yield a protocol error for the sender only.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := decodeData(inbound.Data, &join); err != nil {
			return nil, badRequest("invalid join payload")
		}
		// Blank names are dropped by the hub without a reply.
		return &core.Command{Kind: core.CommandJoin, Name: join.Name}, nil
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return nil, badRequest("invalid message payload")
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: msg.Text}, nil
	case proto.InboundTypeTypingStart:
		return &core.Command{Kind: core.CommandStartTyping}, nil
	case proto.InboundTypeTypingStop:
		return &core.Command{Kind: core.CommandStopTyping}, nil
	default:
		return nil, &proto.Error{Code: proto.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: proto.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String()}

	switch event.Kind {
	case core.EventUserJoined, core.EventUserTyping, core.EventUserLeft:
		out.Data = proto.EventUser{User: event.User}
	case core.EventRoster:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		out.Data = proto.EventRoster{Users: users}
	case core.EventChatMessage:
		out.Data = proto.EventMessage{
			Text: event.Message.Text,
			User: event.Message.From,
		}
	case core.EventUserStoppedTyping:
		// no payload
	}
	return out
}
