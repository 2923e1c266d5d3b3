// Package messages implements message ingestion and querying on top of a
// message store and a broadcast publisher.
package messages

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/metrics"
)

const defaultPublishTimeout = 2 * time.Second

// Service validates, persists and broadcasts messages.
type Service struct {
	repo           *Repository
	publisher      core.Publisher
	sanitizer      Sanitizer
	publishTimeout time.Duration
	log            *zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSanitizer runs text and author through s before persistence.
func WithSanitizer(s Sanitizer) Option {
	return func(svc *Service) {
		svc.sanitizer = s
	}
}

// WithPublishTimeout bounds how long Ingest waits for the publisher to accept an event.
func WithPublishTimeout(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.publishTimeout = d
		}
	}
}

// New creates a new message Service.
func New(repo *Repository, publisher core.Publisher, logger *zerolog.Logger, opts ...Option) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	svc := &Service{
		repo:           repo,
		publisher:      publisher,
		publishTimeout: defaultPublishTimeout,
		log:            logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Ingest validates a candidate, persists it and broadcasts the stored message.
// Nothing is broadcast unless the message was persisted. A failed broadcast
// is logged but does not fail the call.
func (s *Service) Ingest(ctx context.Context, c core.Candidate) (core.Message, error) {
	msg, err := s.ingest(ctx, c)
	if err != nil {
		metrics.MessagesIngested.WithLabelValues(core.Code(err)).Inc()
		return core.Message{}, err
	}
	metrics.MessagesIngested.WithLabelValues("ok").Inc()

	s.broadcast(ctx, msg)
	return msg, nil
}

func (s *Service) ingest(ctx context.Context, c core.Candidate) (core.Message, error) {
	draft, err := core.Validate(c)
	if err != nil {
		return core.Message{}, err
	}

	if s.sanitizer != nil {
		draft.Text = strings.TrimSpace(s.sanitizer.Sanitize(draft.Text))
		draft.Author = strings.TrimSpace(s.sanitizer.Sanitize(draft.Author))
		if draft.Text == "" {
			return core.Message{}, &core.ValidationError{Kind: core.ErrInvalidMessage, Field: "text", Reason: "is empty after sanitizing"}
		}
		if draft.Author == "" {
			return core.Message{}, &core.ValidationError{Kind: core.ErrInvalidMessage, Field: "author", Reason: "is empty after sanitizing"}
		}
	}

	return s.repo.Save(ctx, draft)
}

func (s *Service) broadcast(ctx context.Context, msg core.Message) {
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	for _, r := range core.PublishEach(pubCtx, s.publisher, core.TopicMessageUpdate, core.MessageUpdate{Msg: msg}) {
		if r.Err != nil {
			metrics.BroadcastsPublished.WithLabelValues(core.TopicMessageUpdate, r.Sink, "error").Inc()
			s.log.Warn().Err(r.Err).Str("sink", r.Sink).Str("message_id", msg.ID).Msg("failed to broadcast message")
			continue
		}
		metrics.BroadcastsPublished.WithLabelValues(core.TopicMessageUpdate, r.Sink, "ok").Inc()
	}
}

// List returns every message in ascending timestamp order. It never fails.
func (s *Service) List(ctx context.Context) []core.Message {
	return s.repo.ListAll(ctx)
}
