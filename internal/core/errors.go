package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeStorage        = "storage_error"
	ErrCodeNotFound       = "not_found"
	ErrCodeAlreadyExists  = "already_exists"
	ErrCodeMismatch       = "password_mismatch"
	ErrCodeInvalidUser    = "invalid_user"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidMessage   = errors.New("invalid message")
	ErrStorage          = errors.New("storage failure")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrPasswordMismatch = errors.New("password does not match")
	ErrInvalidUser      = errors.New("invalid user body")
)

// ValidationError reports which field of a candidate failed and why.
// Kind is ErrInvalidRequest or ErrInvalidMessage.
type ValidationError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// StorageError is returned when the underlying store rejects an operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both ErrStorage and the store cause to errors.Is.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// Code maps an error onto one of the ErrCode constants.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return ErrCodeInvalidRequest
	case errors.Is(err, ErrInvalidMessage):
		return ErrCodeInvalidMessage
	case errors.Is(err, ErrInvalidUser):
		return ErrCodeInvalidUser
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return ErrCodeAlreadyExists
	case errors.Is(err, ErrPasswordMismatch):
		return ErrCodeMismatch
	default:
		return ErrCodeStorage
	}
}

func invalidRequest(field, reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidRequest, Field: field, Reason: reason}
}

func invalidMessage(field, reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidMessage, Field: field, Reason: reason}
}
