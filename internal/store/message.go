package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/matheus3301/huddle/internal/kv"
)

// Append adds m to the end of the conversation's log and records it as the
// conversation's last message, in one unit. The stored message is returned
// with ID and SentAt filled in if the caller left them empty.
func (s *Store) Append(conversationID string, m Message) (Message, error) {
	return s.append(conversationID, m, false)
}

// AppendUnread is Append plus an unread increment in the same unit.
func (s *Store) AppendUnread(conversationID string, m Message) (Message, error) {
	return s.append(conversationID, m, true)
}

func (s *Store) append(conversationID string, m Message, bumpUnread bool) (Message, error) {
	m, err := s.prepare(conversationID, m)
	if err != nil {
		return Message{}, err
	}

	key := messagesKey(conversationID)
	err = s.kv.Update(func(w kv.Writer) error {
		if err := writeMessage(w, m); err != nil {
			return err
		}
		_, err := updateState(w, conversationID, func(st *ConversationState) {
			st.LastMessageText = m.Text
			st.LastMessageAt = m.SentAt
			if bumpUnread {
				st.UnreadCount++
			}
		})
		return err
	})
	if err != nil {
		return Message{}, persistErr("append", key, err)
	}
	return m, nil
}

// LoadAll returns the conversation's messages in append order. A conversation
// without history yields an empty slice.
func (s *Store) LoadAll(conversationID string) ([]Message, error) {
	key := messagesKey(conversationID)
	entries, err := s.kv.Range(key)
	if err != nil {
		return nil, persistErr("load", key, err)
	}
	msgs := make([]Message, 0, len(entries))
	for _, data := range entries {
		m, err := decodeMessage(conversationID, data)
		if err != nil {
			return nil, persistErr("decode", key, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// MessageCount returns the length of the conversation's log.
func (s *Store) MessageCount(conversationID string) (int, error) {
	key := messagesKey(conversationID)
	n, err := s.kv.Len(key)
	if err != nil {
		return 0, persistErr("count", key, err)
	}
	return n, nil
}

// Seed persists msgs as the conversation's initial history, at most once.
// It does nothing and returns false if the conversation already has history
// or was seeded before. Unread count and membership are left alone.
func (s *Store) Seed(conversationID string, msgs []Message) (bool, error) {
	prepared := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		p, err := s.prepare(conversationID, m)
		if err != nil {
			return false, err
		}
		prepared = append(prepared, p)
	}

	seeded := false
	key := messagesKey(conversationID)
	err := s.kv.Update(func(w kv.Writer) error {
		n, err := w.Len(key)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if _, err := w.Get(seededKey(conversationID)); err == nil {
			return nil
		} else if !errors.Is(err, kv.ErrNotFound) {
			return err
		}

		for _, m := range prepared {
			if err := writeMessage(w, m); err != nil {
				return err
			}
		}
		if err := w.Set(seededKey(conversationID), []byte("1")); err != nil {
			return err
		}
		if len(prepared) > 0 {
			last := prepared[len(prepared)-1]
			if _, err := updateState(w, conversationID, func(st *ConversationState) {
				st.LastMessageText = last.Text
				st.LastMessageAt = last.SentAt
			}); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, persistErr("seed", key, err)
	}
	return seeded, nil
}

func (s *Store) prepare(conversationID string, m Message) (Message, error) {
	m.ConversationID = conversationID
	if err := s.validateMessage(&m); err != nil {
		return Message{}, err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.SentAt.IsZero() {
		m.SentAt = s.now()
	}
	m.SentAt = normalizeTime(m.SentAt)
	return m, nil
}

func writeMessage(w kv.Writer, m Message) error {
	data, err := encodeMessage(m)
	if err != nil {
		return err
	}
	return w.Append(messagesKey(m.ConversationID), data)
}
