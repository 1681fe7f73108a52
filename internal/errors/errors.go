// Package errors defines the domain error taxonomy shared by repositories,
// services and background jobs.
package errors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write collides with an existing record.
	ErrDuplicate = errors.New("record already exists")
)

// Map converts infra errors (gorm, context) into domain errors.
// Keeps service and worker layers free of storage-specific checks.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return err

	default:
		return err
	}
}

// NotFoundf wraps ErrNotFound with a formatted description.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicate reports whether err is (or wraps) ErrDuplicate.
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }
