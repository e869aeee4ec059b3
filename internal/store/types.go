package store

import "time"

// Epoch is the LastMessageAt of a conversation that has never had a message.
var Epoch = time.Unix(0, 0).UTC()

// Message is one entry of a conversation's log. Messages are immutable once
// appended.
type Message struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversation_id" validate:"notblank,max=128"`
	SenderID        string    `json:"sender_id"`
	SenderName      string    `json:"sender_name"`
	SenderAvatar    string    `json:"sender_avatar"`
	Text            string    `json:"text" validate:"notblank"`
	SentAt          time.Time `json:"sent_at"`
	FromCurrentUser bool      `json:"is_from_current_user"`
}

// ConversationState is the index record kept per conversation.
type ConversationState struct {
	LastMessageText string
	LastMessageAt   time.Time
	UnreadCount     int
	IsMember        bool
}

// HasPreview reports whether a last message has ever been recorded.
func (s ConversationState) HasPreview() bool {
	return s.LastMessageText != "" || !s.LastMessageAt.Equal(Epoch)
}

func zeroState() ConversationState {
	return ConversationState{LastMessageAt: Epoch}
}
