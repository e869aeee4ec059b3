// Package readstate is the write path of the conversation store: sending,
// opening (read reset) and joining conversations.
package readstate

import (
	"errors"
	"time"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/store"
	"go.uber.org/zap"
)

// Bus event kinds published after successful writes.
const (
	EventMessageAppended = "conversation.message_appended"
	EventRead            = "conversation.read"
	EventJoined          = "conversation.joined"
	EventSeeded          = "conversation.seeded"
)

// Change is the payload of every conversation.* event.
type Change struct {
	ConversationID string
	MessageID      string
}

// Sender identifies who a message is from.
type Sender struct {
	ID            string
	Name          string
	Avatar        string
	IsCurrentUser bool
}

// SeedSource supplies demonstration history for conversations opened for the
// first time.
type SeedSource interface {
	SeedMessages(conversationID string) ([]store.Message, bool)
}

// Controller mutates unread counts and membership in response to user
// actions.
type Controller struct {
	store    *store.Store
	bus      *bus.Bus
	identity Sender
	seeds    SeedSource
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewController creates a controller. identity is the current user; seeds,
// m and logger may be nil.
func NewController(s *store.Store, b *bus.Bus, identity Sender, seeds SeedSource, m *metrics.Metrics, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	identity.IsCurrentUser = true
	return &Controller{
		store:    s,
		bus:      b,
		identity: identity,
		seeds:    seeds,
		metrics:  m,
		logger:   logger,
	}
}

// OnSend appends text to the conversation. A message from anyone but the
// current user also counts as unread for the reader.
func (c *Controller) OnSend(conversationID, text string, from Sender) (store.Message, error) {
	m := store.Message{
		SenderID:        from.ID,
		SenderName:      from.Name,
		SenderAvatar:    from.Avatar,
		Text:            text,
		FromCurrentUser: from.IsCurrentUser,
	}

	var (
		stored store.Message
		err    error
		source string
	)
	if from.IsCurrentUser {
		stored, err = c.store.Append(conversationID, m)
		source = "sent"
	} else {
		stored, err = c.store.AppendUnread(conversationID, m)
		source = "received"
	}
	if err != nil {
		c.fail("send", err)
		return store.Message{}, err
	}

	c.metrics.Appended(source, 1)
	c.publish(EventMessageAppended, Change{ConversationID: conversationID, MessageID: stored.ID})
	return stored, nil
}

// Identity returns the current user.
func (c *Controller) Identity() Sender {
	return c.identity
}

// SendAsCurrentUser is OnSend tagged with the configured identity.
func (c *Controller) SendAsCurrentUser(conversationID, text string) (store.Message, error) {
	return c.OnSend(conversationID, text, c.identity)
}

// OnOpenConversation resets the unread count and returns the thread. Call it
// once per view open. A conversation with no history is seeded first if the
// seed source has messages for it.
func (c *Controller) OnOpenConversation(conversationID string) ([]store.Message, error) {
	if err := c.seed(conversationID); err != nil {
		c.fail("seed", err)
		return nil, err
	}
	if err := c.store.ResetUnread(conversationID); err != nil {
		c.fail("open", err)
		return nil, err
	}
	c.metrics.Opened()
	c.publish(EventRead, Change{ConversationID: conversationID})

	msgs, err := c.store.LoadAll(conversationID)
	if err != nil {
		c.fail("load", err)
		return nil, err
	}
	return msgs, nil
}

// OnJoinConversation marks the current user as a member.
func (c *Controller) OnJoinConversation(conversationID string) error {
	if err := c.store.MarkMember(conversationID); err != nil {
		c.fail("join", err)
		return err
	}
	c.metrics.Joined()
	c.logger.Info("conversation joined", zap.String("conversation_id", conversationID))
	c.publish(EventJoined, Change{ConversationID: conversationID})
	return nil
}

func (c *Controller) seed(conversationID string) error {
	if c.seeds == nil {
		return nil
	}
	msgs, ok := c.seeds.SeedMessages(conversationID)
	if !ok {
		return nil
	}
	seeded, err := c.store.Seed(conversationID, msgs)
	if err != nil || !seeded {
		return err
	}
	c.metrics.Appended("seeded", len(msgs))
	c.logger.Info("conversation seeded",
		zap.String("conversation_id", conversationID),
		zap.Int("messages", len(msgs)),
	)
	c.publish(EventSeeded, Change{ConversationID: conversationID})
	return nil
}

func (c *Controller) fail(op string, err error) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		c.metrics.Failed(op, "validation")
		return
	}
	c.metrics.Failed(op, "persistence")
	c.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
}

func (c *Controller) publish(kind string, change Change) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: change})
}
