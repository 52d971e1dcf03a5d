// services/errors.go - Error taxonomy shared by all services
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing puzzles, subpuzzles, users and teams.
	ErrNotFound = errors.New("not found")
	// ErrForbidden covers owner-only actions attempted by non-owners.
	ErrForbidden = errors.New("forbidden")
	// ErrSelfKick is a distinct refusal for an owner kicking themselves.
	ErrSelfKick = errors.New("cannot kick yourself")
	// ErrInvalid covers malformed or inconsistent input.
	ErrInvalid = errors.New("invalid input")
	// ErrTransient covers storage failures; callers may safely retry.
	ErrTransient = errors.New("temporarily unavailable")
)

// classify folds an error coming out of a transaction into the taxonomy:
// sentinel errors pass through, anything else is a storage-level failure
// and surfaces as retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrForbidden, ErrSelfKick, ErrInvalid} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
