package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/metrics"
)

// ErrHubStopped is returned when publishing to a hub whose Run loop has exited.
var ErrHubStopped = errors.New("hub stopped")

const hubQueueSize = 64

// Hub owns the set of connected clients and fans events out to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan *Event
	done       chan struct{}
	log        *zerolog.Logger
}

// NewHub creates a new hub. Run must be started before events are delivered.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *Event, hubQueueSize),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Run processes registrations and events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			close(c.Events)
			delete(h.clients, c)
		}
		metrics.SubscribersActive.Set(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.SubscribersActive.Set(float64(len(h.clients)))
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Events)
				metrics.SubscribersActive.Set(float64(len(h.clients)))
				h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
			}
		case ev := <-h.events:
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev *Event) {
	for c := range h.clients {
		select {
		case c.Events <- ev:
		default:
			// Drop if slow consumer.
			metrics.BroadcastDropped.Inc()
			h.log.Warn().Str("client_id", c.ID).Str("topic", ev.Topic).Msg("dropping event for slow client")
		}
	}
}

// RegisterClient adds a client to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Events)
	}
}

// UnregisterClient removes a client and closes its event channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event for every registered client. It returns once the
// hub has accepted the event, without waiting for delivery.
func (h *Hub) Publish(ctx context.Context, topic string, payload any) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.events <- &Event{Topic: topic, Payload: payload}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned and every client channel is closed.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

var _ Publisher = (*Hub)(nil)
