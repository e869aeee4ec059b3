// Package chatlist builds the ordered chat list a view renders from the
// conversation index and the static conversation catalog.
package chatlist

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/huddle/internal/store"
	"go.uber.org/zap"
)

// Candidate is a conversation the caller may want listed, with its static
// metadata from the catalog.
type Candidate struct {
	ID               string
	Title            string
	ParticipantCount int
}

// Entry is one row of the chat list. Entries are never persisted.
type Entry struct {
	ConversationID   string
	Title            string
	LastMessageText  string
	LastMessageAt    time.Time
	ParticipantCount int
	UnreadCount      int
}

// Index is the part of the conversation store the builder reads and heals.
type Index interface {
	Get(conversationID string) (store.ConversationState, error)
	Materialize(conversationID string, fn func(*store.ConversationState)) (store.ConversationState, error)
}

// Bootstrap configures the implicitly joined demonstration conversations and
// the placeholder state they get the first time they are listed.
type Bootstrap struct {
	ConversationIDs []string
	Placeholders    []string
	UnreadMin       int
	UnreadMax       int
	MaxAge          time.Duration
}

// Builder produces chat lists. It is safe for concurrent use.
type Builder struct {
	mu        sync.Mutex
	index     Index
	bootstrap map[string]bool
	cfg       Bootstrap
	rng       *rand.Rand
	now       func() time.Time
	logger    *zap.Logger
	observe   func(entries int, took time.Duration)
}

// Option configures a Builder.
type Option func(*Builder)

// WithRand sets the random source used for placeholder state.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) { b.rng = r }
}

// WithClock sets the clock used to date placeholder messages.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithObserver registers a callback invoked after every successful build.
func WithObserver(fn func(entries int, took time.Duration)) Option {
	return func(b *Builder) { b.observe = fn }
}

// NewBuilder creates a builder over the index.
func NewBuilder(index Index, cfg Bootstrap, opts ...Option) *Builder {
	b := &Builder{
		index:     index,
		bootstrap: make(map[string]bool, len(cfg.ConversationIDs)),
		cfg:       cfg,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, id := range cfg.ConversationIDs {
		b.bootstrap[id] = true
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// Build returns the joined conversations among candidates, most recent first.
// Conversations with equal timestamps keep their candidate order.
//
// Bootstrap conversations that are not yet joined are joined here, and if
// they have no preview they get a placeholder one. Both are persisted, so
// repeated builds with no writes in between return identical lists.
func (b *Builder) Build(candidates []Candidate) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	entries := make([]Entry, 0, len(candidates))

	for _, c := range candidates {
		st, err := b.index.Get(c.ID)
		if err != nil {
			return nil, err
		}
		if !st.IsMember {
			if !b.bootstrap[c.ID] {
				continue
			}
			st, err = b.heal(c.ID)
			if err != nil {
				return nil, err
			}
		}
		entries = append(entries, Entry{
			ConversationID:   c.ID,
			Title:            c.Title,
			LastMessageText:  st.LastMessageText,
			LastMessageAt:    st.LastMessageAt,
			ParticipantCount: c.ParticipantCount,
			UnreadCount:      st.UnreadCount,
		})
	}

	slices.SortStableFunc(entries, func(x, y Entry) int {
		return y.LastMessageAt.Compare(x.LastMessageAt)
	})

	if b.observe != nil {
		b.observe(len(entries), time.Since(start))
	}
	return entries, nil
}

func (b *Builder) heal(id string) (store.ConversationState, error) {
	filled := false
	st, err := b.index.Materialize(id, func(st *store.ConversationState) {
		st.IsMember = true
		if st.HasPreview() || len(b.cfg.Placeholders) == 0 {
			return
		}
		st.LastMessageText = b.cfg.Placeholders[b.rng.IntN(len(b.cfg.Placeholders))]
		st.LastMessageAt = b.placeholderTime()
		st.UnreadCount = b.placeholderUnread()
		filled = true
	})
	if err != nil {
		return store.ConversationState{}, err
	}
	b.logger.Info("bootstrap conversation joined",
		zap.String("conversation_id", id),
		zap.Bool("placeholder", filled),
	)
	return st, nil
}

func (b *Builder) placeholderTime() time.Time {
	now := b.now()
	if b.cfg.MaxAge <= 0 {
		return now
	}
	return now.Add(-time.Duration(b.rng.Int64N(int64(b.cfg.MaxAge))))
}

func (b *Builder) placeholderUnread() int {
	lo, hi := b.cfg.UnreadMin, b.cfg.UnreadMax
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo + b.rng.IntN(hi-lo+1)
}
