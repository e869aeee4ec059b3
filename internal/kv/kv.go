// Package kv is the storage capability the conversation store is built on:
// namespaced values with get/set, append-only logs, and atomic update units.
package kv

import "errors"

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("kv: key not found")

// Reader reads values and logs.
type Reader interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Range returns the log entries appended under key, oldest first.
	// A key with no entries yields an empty slice.
	Range(key string) ([][]byte, error)
	// Len returns the number of log entries under key.
	Len(key string) (int, error)
}

// Writer extends Reader with mutations.
type Writer interface {
	Reader
	Set(key string, value []byte) error
	Append(key string, value []byte) error
}

// Store is a Writer whose single operations are atomic, plus Update for
// grouping several operations into one unit.
type Store interface {
	Writer
	// Update runs fn as one unit: either every write fn made lands or none
	// does. Implementations serialize Update calls. fn must only use w.
	Update(fn func(w Writer) error) error
	Close() error
}

// Key joins a namespace and an identifier into a storage key.
func Key(namespace, id string) string {
	return namespace + ":" + id
}
