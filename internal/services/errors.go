package services

import (
	"errors"
	"fmt"

	"github.com/harentsoaR/medconnect-api/internal/store"
)

// Every error returned by the clinic service wraps one of these.
var (
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidTransition  = errors.New("invalid appointment transition")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("record was modified concurrently")
	ErrValidation         = errors.New("validation failed")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// lookupErr turns a repository read failure into a service error.
func lookupErr(kind, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

// writeErr turns a repository write failure into a service error.
func writeErr(kind, id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %s %s", ErrConflict, kind, id)
	}
	return fmt.Errorf("save %s %s: %w", kind, id, err)
}
