package repositories

import (
	"errors"
	"fmt"
)

// ErrCartVersionConflict is returned by CartStore.Save when another writer committed first.
var ErrCartVersionConflict = errors.New("cart store: version conflict")

// ErrorKind classifies a persistence failure.
type ErrorKind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown ErrorKind = iota
	// KindNotFound means the record does not exist.
	KindNotFound
	// KindConflict means a concurrent writer won.
	KindConflict
	// KindUnavailable means the backend could not be reached.
	KindUnavailable
)

// Error is the RepositoryError used by stores without a native error type.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

// NewError wraps err with the operation and classification.
func NewError(op string, kind ErrorKind, err error) *Error {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// NotFound builds a KindNotFound error for the record.
func NotFound(op, what string) *Error {
	return NewError(op, KindNotFound, fmt.Errorf("%s not found", what))
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether the record is missing.
func (e *Error) IsNotFound() bool { return e.Kind == KindNotFound }

// IsConflict reports whether a concurrent update won.
func (e *Error) IsConflict() bool { return e.Kind == KindConflict }

// IsUnavailable reports whether the backend is unreachable.
func (e *Error) IsUnavailable() bool { return e.Kind == KindUnavailable }

// IsNotFound reports whether err is a RepositoryError classified as not found.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsUnavailable reports whether err is a RepositoryError classified as unavailable.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
