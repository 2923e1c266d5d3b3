package http

import (
	"context"
	"errors"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/core"
)

// WSHandler upgrades HTTP connections and pushes hub events to them.
// Clients only listen; anything they send is discarded.
type WSHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	client := core.NewClient(uuid.NewString(), 0)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	// CloseRead handles control frames and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	err = h.writeLoop(ctx, conn, client)
	switch {
	case err == nil:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	case errors.Is(err, context.Canceled), websocket.CloseStatus(err) != -1:
		h.log.Debug().Str("client_id", client.ID).Msg("ws client disconnected")
	default:
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		conn.Close(websocket.StatusInternalError, "write failed")
	}
}

// writeLoop returns nil when the hub closes the client's channel.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out, ok := outboundFromEvent(event)
			if !ok {
				continue
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
