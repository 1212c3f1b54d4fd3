// internal/app/store/records/errors.go
package records

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers classify with errors.Is; messages carry the key.
var (
	// ErrUnavailable marks a backend that cannot serve the call. The chain
	// moves on to the next strategy only for errors matching it.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotConfigured is returned before any network call when a backend
	// has no (or placeholder) configuration.
	ErrNotConfigured = fmt.Errorf("%w: not configured", ErrUnavailable)

	ErrNotFound       = errors.New("record not found")
	ErrAlreadyDeleted = errors.New("record is already deleted")
	ErrDuplicateEmail = errors.New("email already exists")
)

// ValidationError reports a missing required field or parameter.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a duplicate or already-deleted conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrAlreadyDeleted)
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

func alreadyDeleted(key string) error {
	return fmt.Errorf("%w: %s", ErrAlreadyDeleted, key)
}

func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
