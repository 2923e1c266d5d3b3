// Package badger implements store.Store on top of an embedded Badger KV database.
//
// Messages are keyed as "msg:{sortable millis}:{sub-millisecond nanos}:{sequence}"
// so a prefix scan yields them in chronological order, with the write sequence
// breaking ties.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/store"
)

const (
	messagePrefix = "msg:"
	userPrefix    = "user:"
	sequenceKey   = "seq:messages"
)

// BadgerStore implements store.Store for Badger.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// New opens a Badger database in dir. An empty dir opens an in-memory database.
func New(dir string, logger *zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(zerologAdapter{log: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("message sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return s.db.Close()
}

type diskMessage struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
	SentAt int64  `json:"sent_at_ms"`
	Nanos  int64  `json:"sent_at_ns,omitempty"`
}

type diskUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	DateJoined int64  `json:"date_joined"`
}

// messageKey flips the sign bit so negative Unix times still sort before positive ones.
// Milliseconds keep the key defined across years 1 to 9999.
func messageKey(at time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x:%06x:%016x", messagePrefix, uint64(at.UnixMilli())^(1<<63), subMilli(at), seq))
}

func subMilli(at time.Time) int64 {
	return int64(at.Nanosecond() % int(time.Millisecond))
}

func sentAt(dm diskMessage) time.Time {
	return time.UnixMilli(dm.SentAt).Add(time.Duration(dm.Nanos)).UTC()
}

func userKey(username string) []byte {
	return []byte(userPrefix + username)
}

// ==== MessageStore implementation ====

// CreateMessage persists a message and assigns its ID.
func (s *BadgerStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	id := uuid.NewString()
	value, err := json.Marshal(diskMessage{
		ID:     id,
		Text:   msg.Text,
		Author: msg.Author,
		SentAt: msg.SentAt.UnixMilli(),
		Nanos:  subMilli(msg.SentAt),
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg.SentAt, n), value)
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	msg.ID = id
	return nil
}

// FindMessages retrieves every message ordered by timestamp, then write order.
func (s *BadgerStore) FindMessages(ctx context.Context) ([]*store.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var messages []*store.Message
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm diskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			})
			if err != nil {
				return fmt.Errorf("decode message: %w", err)
			}
			messages = append(messages, &store.Message{
				ID:     dm.ID,
				Text:   dm.Text,
				Author: dm.Author,
				SentAt: sentAt(dm),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	return messages, nil
}

// ==== UserStore implementation ====

// CreateUser inserts a user and fills in its ID.
func (s *BadgerStore) CreateUser(ctx context.Context, user *store.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := uuid.NewString()
	err := s.db.Update(func(txn *badger.Txn) error {
		key := userKey(user.Username)
		if _, err := txn.Get(key); err == nil {
			return store.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		value, err := json.Marshal(diskUser{
			ID:         id,
			Username:   user.Username,
			Password:   user.Password,
			DateJoined: user.DateJoined.UnixNano(),
		})
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("insert user %q: %w", user.Username, err)
	}

	user.ID = id
	return nil
}

// GetUserByUsername retrieves a user by username.
func (s *BadgerStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *store.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = readUser(txn, username)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserPassword replaces the password and returns the updated user.
func (s *BadgerStore) UpdateUserPassword(ctx context.Context, username, password string) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *store.User
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		user, err = readUser(txn, username)
		if err != nil {
			return err
		}
		user.Password = password
		return writeUser(txn, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUserByUsername removes a user and returns the deleted record.
func (s *BadgerStore) DeleteUserByUsername(ctx context.Context, username string) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *store.User
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		user, err = readUser(txn, username)
		if err != nil {
			return err
		}
		return txn.Delete(userKey(username))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func readUser(txn *badger.Txn, username string) (*store.User, error) {
	item, err := txn.Get(userKey(username))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	var du diskUser
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &du)
	}); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	return &store.User{
		ID:         du.ID,
		Username:   du.Username,
		Password:   du.Password,
		DateJoined: time.Unix(0, du.DateJoined).UTC(),
	}, nil
}

func writeUser(txn *badger.Txn, user *store.User) error {
	value, err := json.Marshal(diskUser{
		ID:         user.ID,
		Username:   user.Username,
		Password:   user.Password,
		DateJoined: user.DateJoined.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return txn.Set(userKey(user.Username), value)
}

// Ensure BadgerStore implements store.Store
var _ store.Store = (*BadgerStore)(nil)
