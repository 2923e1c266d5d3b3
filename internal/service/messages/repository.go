package messages

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/metrics"
	"github.com/vovakirdan/chatline-server/internal/store"
)

// Repository persists messages and returns them in timestamp order.
type Repository struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewRepository creates a Repository over st.
func NewRepository(st store.MessageStore, logger *zerolog.Logger) *Repository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Repository{store: st, log: logger}
}

// Save persists a validated draft and returns it with its store-assigned ID.
// Store failures are returned as *core.StorageError.
func (r *Repository) Save(ctx context.Context, draft core.Draft) (core.Message, error) {
	rec := &store.Message{
		Text:   draft.Text,
		Author: draft.Author,
		SentAt: draft.Timestamp.UTC(),
	}
	if err := r.store.CreateMessage(ctx, rec); err != nil {
		return core.Message{}, &core.StorageError{Op: "save message", Err: err}
	}
	return toMessage(rec), nil
}

// Load returns every stored message sorted ascending by timestamp. Messages
// sharing a timestamp keep the order the store returned them in.
func (r *Repository) Load(ctx context.Context) ([]core.Message, error) {
	recs, err := r.store.FindMessages(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "list messages", Err: err}
	}

	out := lo.Map(recs, func(rec *store.Message, _ int) core.Message {
		return toMessage(rec)
	})
	slices.SortStableFunc(out, func(a, b core.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}

// ListAll is Load for readers that must always get a list.
// A store failure yields an empty list; the failure is logged and counted.
func (r *Repository) ListAll(ctx context.Context) []core.Message {
	out, err := r.Load(ctx)
	if err != nil {
		metrics.MessageListFailures.Inc()
		r.log.Error().Err(err).Msg("failed to list messages")
		return []core.Message{}
	}
	return out
}

func toMessage(rec *store.Message) core.Message {
	return core.Message{
		ID:        rec.ID,
		Text:      rec.Text,
		Author:    rec.Author,
		Timestamp: rec.SentAt.UTC(),
	}
}
