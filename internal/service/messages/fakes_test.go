package messages

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/store"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory store.MessageStore that can be switched into failure mode.
type memStore struct {
	mu       sync.Mutex
	messages []*store.Message
	failSave bool
	failFind bool
	seq      int
}

func (m *memStore) CreateMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSave {
		return errStoreDown
	}
	m.seq++
	msg.ID = fmt.Sprintf("id-%d", m.seq)
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *memStore) FindMessages(_ context.Context) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failFind {
		return nil, errStoreDown
	}
	out := make([]*store.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

type published struct {
	topic   string
	payload any
}

// recorder is a core.Publisher that keeps every event it is given.
type recorder struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (r *recorder) Publish(_ context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, published{topic: topic, payload: payload})
	return nil
}

func (r *recorder) snapshot() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

var _ core.Publisher = (*recorder)(nil)
var _ store.MessageStore = (*memStore)(nil)
