package store

import (
	"time"

	"github.com/matheus3301/huddle/internal/kv"
)

// Get returns the conversation's index record, or the zero state (empty text,
// Epoch, no unread, not a member) if it was never touched.
func (s *Store) Get(conversationID string) (ConversationState, error) {
	st, err := readState(s.kv, conversationID)
	if err != nil {
		return ConversationState{}, persistErr("get", conversationKey(conversationID), err)
	}
	return st, nil
}

// RecordNewMessage overwrites the last-message preview.
func (s *Store) RecordNewMessage(conversationID, text string, at time.Time) error {
	at = normalizeTime(at)
	return s.update("record", conversationID, func(st *ConversationState) {
		st.LastMessageText = text
		st.LastMessageAt = at
	})
}

// IncrementUnread adds one to the unread count.
func (s *Store) IncrementUnread(conversationID string) error {
	return s.update("increment_unread", conversationID, func(st *ConversationState) {
		st.UnreadCount++
	})
}

// ResetUnread sets the unread count to zero.
func (s *Store) ResetUnread(conversationID string) error {
	return s.update("reset_unread", conversationID, func(st *ConversationState) {
		st.UnreadCount = 0
	})
}

// MarkMember records that the current user joined the conversation. There is
// no inverse.
func (s *Store) MarkMember(conversationID string) error {
	return s.update("mark_member", conversationID, func(st *ConversationState) {
		st.IsMember = true
	})
}

// Materialize applies fn to the conversation's record and persists the result
// as one unit. fn cannot clear membership.
func (s *Store) Materialize(conversationID string, fn func(*ConversationState)) (ConversationState, error) {
	var out ConversationState
	err := s.kv.Update(func(w kv.Writer) error {
		var err error
		out, err = updateState(w, conversationID, func(st *ConversationState) {
			wasMember := st.IsMember
			fn(st)
			st.IsMember = st.IsMember || wasMember
			st.LastMessageAt = normalizeTime(st.LastMessageAt)
		})
		return err
	})
	if err != nil {
		return ConversationState{}, persistErr("materialize", conversationKey(conversationID), err)
	}
	return out, nil
}

func (s *Store) update(op, conversationID string, fn func(*ConversationState)) error {
	err := s.kv.Update(func(w kv.Writer) error {
		_, err := updateState(w, conversationID, fn)
		return err
	})
	if err != nil {
		return persistErr(op, conversationKey(conversationID), err)
	}
	return nil
}
