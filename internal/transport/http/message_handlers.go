package http

import (
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/proto"
	"github.com/vovakirdan/chatline-server/internal/service/messages"
)

const (
	msgInvalidRequest = "Invalid request"
	msgInvalidMessage = "Invalid message"
	msgSaveFailed     = "Error when saving message"
)

// maxMessageBody bounds the addMessage request body.
const maxMessageBody = 1 << 20

// MessageHandlers provides HTTP handlers for message operations.
type MessageHandlers struct {
	svc *messages.Service
	log *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(svc *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		svc: svc,
		log: logger,
	}
}

// AddMessage validates, stores and broadcasts one message.
// POST /messaging/addMessage
func (h *MessageHandlers) AddMessage(c *gin.Context) {
	body, err := io.ReadAll(stdhttp.MaxBytesReader(c.Writer, c.Request.Body, maxMessageBody))
	if err != nil {
		c.String(stdhttp.StatusBadRequest, msgInvalidRequest)
		return
	}

	candidate, err := proto.DecodeAddMessage(body)
	if err != nil {
		h.log.Debug().Err(err).Msg("rejecting add message request")
		c.String(stdhttp.StatusBadRequest, msgInvalidRequest)
		return
	}

	msg, err := h.svc.Ingest(c.Request.Context(), candidate)
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, proto.FromMessage(msg))
}

func (h *MessageHandlers) writeIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		h.log.Debug().Err(err).Msg("rejecting add message request")
		c.String(stdhttp.StatusBadRequest, msgInvalidRequest)
	case errors.Is(err, core.ErrInvalidMessage):
		h.log.Debug().Err(err).Msg("rejecting invalid message")
		c.String(stdhttp.StatusBadRequest, msgInvalidMessage)
	default:
		h.log.Error().Err(err).Msg("failed to save message")
		cause := err
		var serr *core.StorageError
		if errors.As(err, &serr) && serr.Err != nil {
			cause = serr.Err
		}
		c.String(stdhttp.StatusInternalServerError, msgSaveFailed+": "+cause.Error())
	}
}

// GetMessages lists every message in ascending timestamp order.
// GET /messaging/getMessages
func (h *MessageHandlers) GetMessages(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, messagesToWire(h.svc.List(c.Request.Context())))
}
