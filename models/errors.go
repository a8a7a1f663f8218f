package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a repository or by the inventory
// package matches exactly one of these with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

var (
	// ErrArticleNotFound is returned when an article is not found.
	ErrArticleNotFound = fmt.Errorf("article %w", ErrNotFound)
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrOrderNotFound is returned when an order is not found.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
)

// Validationf builds an ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Persistence wraps a storage failure. Errors that already carry a kind are
// returned unchanged so callers keep the first classification.
func Persistence(op string, err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistence, op, err)
}

// IsKnown reports whether err is already classified.
func IsKnown(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistence)
}
