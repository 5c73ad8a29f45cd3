package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers both "the row does not exist" and "the requester
	// may not see it". The two are deliberately indistinguishable so that
	// existence of other users' resources is never disclosed. This applies
	// to mutations too: a denied move/delete/attach reads the same as a
	// missing target.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateContent signals the dedup invariant: the owner already
	// has a live file with this content hash.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrConflict signals a name collision on a user-scoped unique field,
	// e.g. creating a category that already exists.
	ErrConflict = errors.New("already exists")

	// ErrStorageUnavailable wraps backing-store I/O failures on the
	// metadata-write path.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvariantViolation marks internal inconsistencies; the enclosing
	// transaction must abort.
	ErrInvariantViolation = errors.New("invariant violation")
)

// DuplicateContentError carries the id of the already-registered file so the
// upload path can report it instead of failing the whole request.
type DuplicateContentError struct {
	ExistingID uuid.UUID
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content: file %s already registered", e.ExistingID)
}

func (e *DuplicateContentError) Unwrap() error {
	return ErrDuplicateContent
}
