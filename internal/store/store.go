// Package store is the durable conversation store: an append-only message log
// per conversation and the conversation index (last message, unread count,
// membership) kept consistent with it.
package store

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/matheus3301/huddle/internal/kv"
)

// Store owns the message log and the conversation index. It is the only
// mutator of the kv backend it is given.
type Store struct {
	kv       kv.Store
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp messages without a SentAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store over the given backend.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:       backend,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
