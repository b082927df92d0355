package settlement

import (
	"errors"
	"fmt"

	"github.com/mmynk/groupledger/internal/storage"
)

// Error taxonomy. Callers match with errors.Is; a returned error may wrap the
// underlying storage error as well.
var (
	// ErrValidation means the request was malformed. Nothing was written.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound means a group, user, split or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means the caller is not allowed to act on the group or record.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNoDebtFound means there is nothing to settle. It is a no-op result, not a failure.
	ErrNoDebtFound = errors.New("no debts found")

	// ErrConflict means the books changed under the request, e.g. a planned
	// transfer that another settlement already paid. It was rolled back.
	ErrConflict = errors.New("conflicting settlement")

	// ErrPersistence means a store operation failed and the transfer was rolled back.
	ErrPersistence = errors.New("persistence failure")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

// storeError classifies a storage failure. Missing records become ErrNotFound,
// write collisions ErrConflict, everything else ErrPersistence. Errors that
// are already classified keep their class.
func storeError(op string, err error) error {
	if classified(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

func classified(err error) bool {
	for _, target := range []error{ErrValidation, ErrNotFound, ErrUnauthorized, ErrNoDebtFound, ErrConflict, ErrPersistence} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isRejection reports whether err refused the request rather than failing it.
func isRejection(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNoDebtFound) ||
		errors.Is(err, ErrConflict)
}
