// Package users implements account signup, login and maintenance by username.
package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/store"
)

var validate = validator.New()

// Credentials is the body accepted by signup, login and password reset.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Profile is a user as exposed to callers. It never carries the password.
type Profile struct {
	ID         string
	Username   string
	DateJoined time.Time
}

// Service provides user account business logic.
type Service struct {
	store store.UserStore
	now   func() time.Time
}

// New creates a new user Service.
func New(st store.UserStore) *Service {
	return &Service{
		store: st,
		now:   time.Now,
	}
}

// ValidateCredentials reports core.ErrInvalidUser when a field is missing or empty.
func ValidateCredentials(c Credentials) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidUser, err)
	}
	return nil
}

// Signup creates an account joined now.
func (s *Service) Signup(ctx context.Context, c Credentials) (Profile, error) {
	if err := ValidateCredentials(c); err != nil {
		return Profile{}, err
	}

	user := &store.User{
		Username:   c.Username,
		Password:   c.Password,
		DateJoined: s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return Profile{}, mapStoreError("create user", err)
	}
	return toProfile(user), nil
}

// Login checks the password for an existing account.
func (s *Service) Login(ctx context.Context, c Credentials) (Profile, error) {
	if err := ValidateCredentials(c); err != nil {
		return Profile{}, err
	}

	user, err := s.store.GetUserByUsername(ctx, c.Username)
	if err != nil {
		return Profile{}, mapStoreError("get user", err)
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(c.Password)) != 1 {
		return Profile{}, core.ErrPasswordMismatch
	}
	return toProfile(user), nil
}

// Get looks up an account by username.
func (s *Service) Get(ctx context.Context, username string) (Profile, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return Profile{}, mapStoreError("get user", err)
	}
	return toProfile(user), nil
}

// Delete removes an account and returns what was removed.
func (s *Service) Delete(ctx context.Context, username string) (Profile, error) {
	user, err := s.store.DeleteUserByUsername(ctx, username)
	if err != nil {
		return Profile{}, mapStoreError("delete user", err)
	}
	return toProfile(user), nil
}

// ResetPassword replaces the password of an existing account.
func (s *Service) ResetPassword(ctx context.Context, c Credentials) (Profile, error) {
	if err := ValidateCredentials(c); err != nil {
		return Profile{}, err
	}

	user, err := s.store.UpdateUserPassword(ctx, c.Username, c.Password)
	if err != nil {
		return Profile{}, mapStoreError("update user", err)
	}
	return toProfile(user), nil
}

func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%s: %w", op, core.ErrAlreadyExists)
	default:
		return &core.StorageError{Op: op, Err: err}
	}
}

func toProfile(u *store.User) Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		DateJoined: u.DateJoined.UTC(),
	}
}
