package repository

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// PersistenceError reports a storage-layer fault (I/O failure, constraint
// violation). It is never a domain outcome: a missing row is not an error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// persistErr wraps err with a stack trace, or returns nil.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: pkgerrors.WithStack(err)}
}

// IsPersistence reports whether err originated in the storage layer.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
