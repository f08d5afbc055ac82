// Package store is the authoritative side of the product: every table read and
// write, ownership checks and cascades. Errors are mapped onto apperr sentinels.
package store

import (
	"errors"
	"fmt"

	"brokenexp/internal/apperr"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for callers that need raw queries (jobs, health checks).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// wrap annotates err with op and turns gorm's well-known errors into sentinels.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrForbidden),
		errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrConflict):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrBackend, err)
	}
}
