// Package proto defines the JSON shapes exchanged with HTTP, WebSocket and
// SSE clients.
package proto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/vovakirdan/chatline-server/internal/core"
)

const OutboundTypeEvent = "event"

// TimestampLayout renders instants with millisecond precision, e.g. 2024-06-04T00:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// AddMessageRequest is the body of POST /messaging/addMessage.
// MessageToAdd stays raw so that a missing or non-object value can be told
// apart from a message with bad content.
type AddMessageRequest struct {
	MessageToAdd json.RawMessage `json:"messageToAdd"`
}

// Message is a persisted chat message as returned to clients.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

// Outbound is the envelope for messages sent to WebSocket clients.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// EventMessageUpdate carries a newly persisted message.
type EventMessageUpdate struct {
	Msg Message `json:"msg"`
}

// User is an account as returned to clients. The password is never included.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	DateJoined string `json:"dateJoined"`
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FromMessage converts a domain message into its wire form.
func FromMessage(m core.Message) Message {
	return Message{
		ID:        m.ID,
		Text:      m.Text,
		Author:    m.Author,
		Timestamp: FormatTimestamp(m.Timestamp),
	}
}

// DecodeAddMessage parses an addMessage body into a core.Candidate. Malformed
// JSON, a missing envelope, or an envelope that is not an object yield
// core.ErrInvalidRequest. Field level checks are left to core.Validate.
func DecodeAddMessage(body []byte) (core.Candidate, error) {
	var req AddMessageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return core.Candidate{}, invalidEnvelope("is not valid JSON")
	}

	raw := bytes.TrimSpace(req.MessageToAdd)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return core.Candidate{}, invalidEnvelope("is required")
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return core.Candidate{}, invalidEnvelope("must be an object")
	}

	return core.Candidate{
		Text:      fields["text"],
		Author:    fields["author"],
		Timestamp: fields["timestamp"],
	}, nil
}

func invalidEnvelope(reason string) error {
	return &core.ValidationError{Kind: core.ErrInvalidRequest, Field: "messageToAdd", Reason: reason}
}
