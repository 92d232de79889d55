package google

import (
	"errors"
	"fmt"
)

// ErrNoCredentials indicates sync was attempted before any OAuth login has
// ever completed.
var ErrNoCredentials = errors.New("no Google credentials available")

// RemoteAPIError wraps a Google API call failure with the upstream message
// attached. Calls are never retried here; retry policy belongs to callers.
type RemoteAPIError struct {
	Op  string
	Err error
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("google api: %s: %v", e.Op, e.Err)
}

func (e *RemoteAPIError) Unwrap() error { return e.Err }

func remoteErr(op string, err error) error {
	return &RemoteAPIError{Op: op, Err: err}
}
