package http

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/core"
)

// SSEHandler streams hub events as Server-Sent Events.
type SSEHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewSSEHandler creates a handler streaming hub events as server-sent events.
func NewSSEHandler(hub *core.Hub, logger *zerolog.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, log: logger}
}

// Stream subscribes the caller and writes one event per broadcast.
// GET /messaging/stream
func (h *SSEHandler) Stream(c *gin.Context) {
	client := core.NewClient(uuid.NewString(), 0)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	ready := false

	c.Stream(func(_ io.Writer) bool {
		if !ready {
			ready = true
			c.SSEvent("ready", client.ID)
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case event, ok := <-client.Events:
			if !ok {
				return false
			}
			if data, ok := eventData(event); ok {
				c.SSEvent(event.Topic, data)
			}
			return true
		}
	})

	h.log.Debug().Str("client_id", client.ID).Msg("sse client disconnected")
}
