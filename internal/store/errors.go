package store

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a missing resource lookup.
var ErrNotFound = errors.New("record not found")

// StorageError wraps an underlying database failure. Callers only need to
// know a storage operation failed, not which driver error caused it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
