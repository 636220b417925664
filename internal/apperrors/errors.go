// Package apperrors defines the error taxonomy shared by the service and
// handler layers. Every error a service returns wraps one of the base kinds,
// so the HTTP layer can map it to a status code with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

// Base kinds.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("unauthorized")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

// Well-known errors.
var (
	ErrInvalidCredentials = Auth("invalid credentials")
	ErrInvalidToken       = Auth("invalid token")
	ErrTokenExpired       = Auth("token has expired")
	ErrUserExists         = Conflict("user with this email or username already exists")
	ErrUserNotFound       = NotFound("user not found")
	ErrTaskNotFound       = NotFound("task not found")
	ErrFileNotFound       = NotFound("file not found")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Validation returns a 400-class error with the given message.
func Validation(msg string) error {
	return &kindError{kind: ErrValidation, msg: msg}
}

// Conflict returns a 409-class error with the given message.
func Conflict(msg string) error {
	return &kindError{kind: ErrConflict, msg: msg}
}

// Auth returns a 401-class error with the given message.
func Auth(msg string) error {
	return &kindError{kind: ErrAuth, msg: msg}
}

// NotFound returns a 404-class error with the given message.
func NotFound(msg string) error {
	return &kindError{kind: ErrNotFound, msg: msg}
}

// Storagef wraps an unexpected store failure. The handler layer logs the
// detail and surfaces a generic message.
func Storagef(format string, args ...any) error {
	return &kindError{kind: ErrStorage, msg: fmt.Sprintf(format, args...)}
}
