package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vovakirdan/chatline-server/internal/store"
)

// Schema creates the tables used by the store. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	username    TEXT NOT NULL UNIQUE,
	password    TEXT NOT NULL,
	date_joined TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	seq     BIGSERIAL PRIMARY KEY,
	id      TEXT NOT NULL UNIQUE,
	text    TEXT NOT NULL,
	author  TEXT NOT NULL,
	sent_at TIMESTAMPTZ NOT NULL
);
`

const uniqueViolation = "23505"

// PostgresStore implements store.Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and applies the schema.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes every connection in the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ==== UserStore implementation ====

// CreateUser inserts a user and fills in its ID.
func (s *PostgresStore) CreateUser(ctx context.Context, user *store.User) error {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, password, date_joined) VALUES ($1, $2, $3, $4)`,
		id, user.Username, user.Password, user.DateJoined.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert user %q: %w", user.Username, store.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return nil
}

// GetUserByUsername retrieves a user by username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password, date_joined FROM users WHERE username = $1`,
		username,
	)
	return scanUser(row, username)
}

// UpdateUserPassword replaces the password and returns the updated user.
func (s *PostgresStore) UpdateUserPassword(ctx context.Context, username, password string) (*store.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET password = $1 WHERE username = $2
		 RETURNING id, username, password, date_joined`,
		password, username,
	)
	return scanUser(row, username)
}

// DeleteUserByUsername removes a user and returns the deleted record.
func (s *PostgresStore) DeleteUserByUsername(ctx context.Context, username string) (*store.User, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM users WHERE username = $1
		 RETURNING id, username, password, date_joined`,
		username,
	)
	return scanUser(row, username)
}

func scanUser(row pgx.Row, username string) (*store.User, error) {
	var user store.User
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.DateJoined); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.DateJoined = user.DateJoined.UTC()
	return &user, nil
}

// ==== MessageStore implementation ====

// CreateMessage persists a message and assigns its ID.
func (s *PostgresStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, text, author, sent_at) VALUES ($1, $2, $3, $4)`,
		id, msg.Text, msg.Author, msg.SentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	msg.ID = id
	return nil
}

// FindMessages retrieves every message in insertion order.
func (s *PostgresStore) FindMessages(ctx context.Context) ([]*store.Message, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, text, author, sent_at FROM messages ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.Text, &msg.Author, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.SentAt = msg.SentAt.UTC()
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// Ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)
