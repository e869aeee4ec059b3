package store

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/matheus3301/huddle/internal/kv"
)

// Key namespaces of the persisted layout.
const (
	nsMessages     = "messages"
	nsConversation = "conversation"
	nsSeeded       = "seeded"
)

func messagesKey(id string) string     { return kv.Key(nsMessages, id) }
func conversationKey(id string) string { return kv.Key(nsConversation, id) }
func seededKey(id string) string       { return kv.Key(nsSeeded, id) }

// Timestamps are persisted as float seconds since the epoch with microsecond
// precision; normalizeTime truncates in-memory values to the same precision
// so a stored record reads back equal.
func toSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromSeconds(s float64) time.Time {
	return time.UnixMicro(int64(math.Round(s * 1e6))).UTC()
}

func normalizeTime(t time.Time) time.Time {
	return fromSeconds(toSeconds(t))
}

type messageRecord struct {
	ID              string  `json:"id"`
	SenderID        string  `json:"sender_id"`
	SenderName      string  `json:"sender_name"`
	SenderAvatar    string  `json:"sender_avatar"`
	Text            string  `json:"text"`
	SentAt          float64 `json:"sent_at"`
	FromCurrentUser bool    `json:"is_from_current_user"`
}

func encodeMessage(m Message) ([]byte, error) {
	return json.Marshal(messageRecord{
		ID:              m.ID,
		SenderID:        m.SenderID,
		SenderName:      m.SenderName,
		SenderAvatar:    m.SenderAvatar,
		Text:            m.Text,
		SentAt:          toSeconds(m.SentAt),
		FromCurrentUser: m.FromCurrentUser,
	})
}

func decodeMessage(conversationID string, data []byte) (Message, error) {
	var r messageRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return Message{}, err
	}
	return Message{
		ID:              r.ID,
		ConversationID:  conversationID,
		SenderID:        r.SenderID,
		SenderName:      r.SenderName,
		SenderAvatar:    r.SenderAvatar,
		Text:            r.Text,
		SentAt:          fromSeconds(r.SentAt),
		FromCurrentUser: r.FromCurrentUser,
	}, nil
}

type stateRecord struct {
	LastMessageText string  `json:"last_message_text"`
	LastMessageAt   float64 `json:"last_message_at"`
	UnreadCount     int     `json:"unread_count"`
	IsMember        bool    `json:"is_member"`
}

func readState(r kv.Reader, id string) (ConversationState, error) {
	data, err := r.Get(conversationKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return zeroState(), nil
	}
	if err != nil {
		return ConversationState{}, err
	}
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ConversationState{}, err
	}
	return ConversationState{
		LastMessageText: rec.LastMessageText,
		LastMessageAt:   fromSeconds(rec.LastMessageAt),
		UnreadCount:     rec.UnreadCount,
		IsMember:        rec.IsMember,
	}, nil
}

// updateState is the read-modify-write of one conversation record.
func updateState(w kv.Writer, id string, fn func(*ConversationState)) (ConversationState, error) {
	st, err := readState(w, id)
	if err != nil {
		return ConversationState{}, err
	}
	fn(&st)
	if st.UnreadCount < 0 {
		st.UnreadCount = 0
	}
	data, err := json.Marshal(stateRecord{
		LastMessageText: st.LastMessageText,
		LastMessageAt:   toSeconds(st.LastMessageAt),
		UnreadCount:     st.UnreadCount,
		IsMember:        st.IsMember,
	})
	if err != nil {
		return ConversationState{}, err
	}
	if err := w.Set(conversationKey(id), data); err != nil {
		return ConversationState{}, err
	}
	return st, nil
}
