package http

import (
	"github.com/samber/lo"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/proto"
	"github.com/vovakirdan/chatline-server/internal/service/users"
)

func messagesToWire(msgs []core.Message) []proto.Message {
	return lo.Map(msgs, func(m core.Message, _ int) proto.Message {
		return proto.FromMessage(m)
	})
}

func userToWire(p users.Profile) proto.User {
	return proto.User{
		ID:         p.ID,
		Username:   p.Username,
		DateJoined: proto.FormatTimestamp(p.DateJoined),
	}
}

// eventData converts a hub event payload into its wire form. ok is false for
// payloads clients do not understand.
func eventData(event *core.Event) (any, bool) {
	switch payload := event.Payload.(type) {
	case core.MessageUpdate:
		return proto.EventMessageUpdate{Msg: proto.FromMessage(payload.Msg)}, true
	default:
		return nil, false
	}
}

func outboundFromEvent(event *core.Event) (proto.Outbound, bool) {
	data, ok := eventData(event)
	if !ok {
		return proto.Outbound{}, false
	}
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event.Topic,
		Data:  data,
	}, true
}
