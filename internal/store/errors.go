package store

import "fmt"

// ValidationError is returned when a message is rejected before any storage
// access, e.g. blank text.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failure of the underlying kv store. When it is
// returned, none of the operation's writes were applied.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op, key string, err error) error {
	return &PersistenceError{Op: op, Key: key, Err: err}
}
