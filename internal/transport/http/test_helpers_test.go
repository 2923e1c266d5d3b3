package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/config"
	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/service/messages"
	"github.com/vovakirdan/chatline-server/internal/service/users"
	"github.com/vovakirdan/chatline-server/internal/store"
	"github.com/vovakirdan/chatline-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// failingMessageStore rejects every write.
type failingMessageStore struct{}

func (failingMessageStore) CreateMessage(context.Context, *store.Message) error {
	return errors.New("database error")
}

func (failingMessageStore) FindMessages(context.Context) ([]*store.Message, error) {
	return nil, errors.New("database error")
}

type testServer struct {
	*httptest.Server
}

type serverOpts struct {
	messageStore store.MessageStore
	rateLimit    int
}

func startTestServer(t *testing.T, opts serverOpts) *testServer {
	t.Helper()

	st := createTestStore(t)
	var msgStore store.MessageStore = st
	if opts.messageStore != nil {
		msgStore = opts.messageStore
	}

	disabledLogger := zerolog.New(nil)

	hub := core.NewHub(&disabledLogger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	msgSvc := messages.New(messages.NewRepository(msgStore, &disabledLogger), hub, &disabledLogger)
	userSvc := users.New(st)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.RateLimit.Requests = opts.rateLimit

	server := NewServer(hub, msgSvc, userSvc, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts}
}
