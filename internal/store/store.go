package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a create violates a uniqueness constraint.
	ErrAlreadyExists = errors.New("record already exists")
)

// Driver names accepted in store.driver.
const (
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// User represents a user account.
type User struct {
	ID         string
	Username   string
	Password   string
	DateJoined time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID     string
	Text   string
	Author string
	SentAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a user and fills in its ID.
	// Returns ErrAlreadyExists if the username is taken.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUserPassword replaces the password and returns the updated user.
	UpdateUserPassword(ctx context.Context, username, password string) (*User, error)

	// DeleteUserByUsername removes a user and returns the deleted record.
	DeleteUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and assigns its ID.
	CreateMessage(ctx context.Context, msg *Message) error

	// FindMessages retrieves every persisted message.
	// Order is driver specific; callers sort.
	FindMessages(ctx context.Context) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
