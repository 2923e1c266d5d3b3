package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := New(st)
	svc.now = func() time.Time { return time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestSignupThenLogin(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, Credentials{Username: "alice", Password: "pw"})
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal("alice", created.Username)
	req.True(created.DateJoined.Equal(time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)))

	logged, err := svc.Login(ctx, Credentials{Username: "alice", Password: "pw"})
	req.NoError(err)
	req.Equal(created.ID, logged.ID)

	_, err = svc.Login(ctx, Credentials{Username: "alice", Password: "wrong"})
	req.ErrorIs(err, core.ErrPasswordMismatch)

	_, err = svc.Login(ctx, Credentials{Username: "bob", Password: "pw"})
	req.ErrorIs(err, core.ErrNotFound)
}

func TestSignupDuplicateUsername(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, Credentials{Username: "alice", Password: "pw"})
	req.NoError(err)

	_, err = svc.Signup(ctx, Credentials{Username: "alice", Password: "other"})
	req.ErrorIs(err, core.ErrAlreadyExists)
}

func TestInvalidCredentials(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	for _, c := range []Credentials{{}, {Username: "alice"}, {Password: "pw"}} {
		_, err := svc.Signup(ctx, c)
		req.ErrorIs(err, core.ErrInvalidUser)
		_, err = svc.Login(ctx, c)
		req.ErrorIs(err, core.ErrInvalidUser)
		_, err = svc.ResetPassword(ctx, c)
		req.ErrorIs(err, core.ErrInvalidUser)
	}
}

func TestResetGetAndDelete(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, Credentials{Username: "alice", Password: "pw"})
	req.NoError(err)

	_, err = svc.ResetPassword(ctx, Credentials{Username: "alice", Password: "new"})
	req.NoError(err)

	_, err = svc.Login(ctx, Credentials{Username: "alice", Password: "pw"})
	req.ErrorIs(err, core.ErrPasswordMismatch)
	_, err = svc.Login(ctx, Credentials{Username: "alice", Password: "new"})
	req.NoError(err)

	got, err := svc.Get(ctx, "alice")
	req.NoError(err)
	req.Equal(created.ID, got.ID)
	req.True(created.DateJoined.Equal(got.DateJoined))

	deleted, err := svc.Delete(ctx, "alice")
	req.NoError(err)
	req.Equal(created.ID, deleted.ID)

	_, err = svc.Get(ctx, "alice")
	req.ErrorIs(err, core.ErrNotFound)
	_, err = svc.Delete(ctx, "alice")
	req.ErrorIs(err, core.ErrNotFound)
	_, err = svc.ResetPassword(ctx, Credentials{Username: "alice", Password: "x"})
	req.ErrorIs(err, core.ErrNotFound)
}
