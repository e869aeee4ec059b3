// Package catalog is the static list of event conversations (title,
// participant count) and the demonstration history seeded into them.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/matheus3301/huddle/internal/chatlist"
	"github.com/matheus3301/huddle/internal/store"
)

//go:embed default.toml
var defaultCatalog string

// Catalog is the decoded catalog.toml.
type Catalog struct {
	Conversations []Conversation `toml:"conversation"`

	byID map[string]int
	now  func() time.Time
}

// Conversation is one catalog entry.
type Conversation struct {
	ID           string        `toml:"id"`
	Title        string        `toml:"title"`
	Participants int           `toml:"participants"`
	Seed         []SeedMessage `toml:"seed"`
}

// SeedMessage is a demonstration message, dated relative to seeding time.
type SeedMessage struct {
	SenderID   string `toml:"sender_id"`
	SenderName string `toml:"sender_name"`
	Avatar     string `toml:"avatar"`
	Text       string `toml:"text"`
	MinutesAgo int    `toml:"minutes_ago"`
}

// Default returns the built-in demonstration catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog: %v", err))
	}
	return c
}

// Parse decodes a catalog from TOML text.
func Parse(data string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.Decode(data, &c); err != nil {
		return nil, err
	}
	return c.index()
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, err
	}
	return c.index()
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Catalog, error) {
	c, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

func (c *Catalog) index() (*Catalog, error) {
	c.byID = make(map[string]int, len(c.Conversations))
	c.now = time.Now
	for i, conv := range c.Conversations {
		if conv.ID == "" {
			return nil, fmt.Errorf("conversation %d: missing id", i)
		}
		if _, dup := c.byID[conv.ID]; dup {
			return nil, fmt.Errorf("conversation %q: duplicate id", conv.ID)
		}
		// A seed the store would reject would fail every open of the
		// conversation, so it is refused at load time.
		for j, m := range conv.Seed {
			if strings.TrimSpace(m.Text) == "" {
				return nil, fmt.Errorf("conversation %q: seed %d: blank text", conv.ID, j)
			}
		}
		c.byID[conv.ID] = i
	}
	return c, nil
}

// SetClock overrides the clock seed timestamps are computed from.
func (c *Catalog) SetClock(now func() time.Time) {
	c.now = now
}

// Lookup returns the catalog entry for id.
func (c *Catalog) Lookup(id string) (Conversation, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Conversation{}, false
	}
	return c.Conversations[i], true
}

// Candidates returns every catalog conversation in file order.
func (c *Catalog) Candidates() []chatlist.Candidate {
	out := make([]chatlist.Candidate, 0, len(c.Conversations))
	for _, conv := range c.Conversations {
		out = append(out, chatlist.Candidate{
			ID:               conv.ID,
			Title:            conv.Title,
			ParticipantCount: conv.Participants,
		})
	}
	return out
}

// SeedMessages returns the demonstration history for id, if it has any.
func (c *Catalog) SeedMessages(id string) ([]store.Message, bool) {
	conv, ok := c.Lookup(id)
	if !ok || len(conv.Seed) == 0 {
		return nil, false
	}
	now := c.now()
	msgs := make([]store.Message, 0, len(conv.Seed))
	for _, s := range conv.Seed {
		msgs = append(msgs, store.Message{
			SenderID:     s.SenderID,
			SenderName:   s.SenderName,
			SenderAvatar: s.Avatar,
			Text:         s.Text,
			SentAt:       now.Add(-time.Duration(s.MinutesAgo) * time.Minute),
		})
	}
	return msgs, true
}
