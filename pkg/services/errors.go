package services

import (
	"errors"
	"fmt"

	"todolis-backend/pkg/database"
)

var (
	// ErrNotFound matches every *NotFoundError through errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for a missing, unknown or insufficient
	// token. The message is the same in every case.
	ErrUnauthorized = errors.New("invalid or insufficient token")
	// ErrConflict is returned when a write lost a race with another request.
	ErrConflict = errors.New("modified by another request")
	// ErrNicknameTaken wraps ErrConflict: a concurrent reconciliation
	// inserted the same nickname first.
	ErrNicknameTaken = fmt.Errorf("nickname already added: %w", ErrConflict)
)

// ValidationError names the offending field and the violated constraint.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Constraint)
}

// NotFoundError reports a missing space or goal.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// EmptyResultError is the soft signal for a space without goals. It is not a
// failure; the HTTP layer renders it as an informational payload.
type EmptyResultError struct {
	SpaceID string
}

func (e *EmptyResultError) Error() string {
	return "No data found for space_id: " + e.SpaceID
}

// lookupErr turns a single-row lookup failure into NotFound or StorageError.
func lookupErr(resource, id string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return &StorageError{Op: "get " + resource, Err: err}
}
