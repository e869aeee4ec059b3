package api

// Wire messages of huddle.v1.Huddle. Timestamps are Unix milliseconds.

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Profile           string `json:"profile"`
	Status            string `json:"status"`
	Reason            string `json:"reason,omitempty"`
	UptimeMs          int64  `json:"uptime_ms"`
	Identity          string `json:"identity"`
	ConversationCount int    `json:"conversation_count"`
	MessageCount      int    `json:"message_count"`
}

type ListChatsRequest struct {
	// Limit caps the number of entries returned; 0 means all.
	Limit int `json:"limit,omitempty"`
}

type ListChatsResponse struct {
	Chats []Chat `json:"chats"`
}

// Chat is one row of the chat list.
type Chat struct {
	ConversationID   string `json:"conversation_id"`
	Title            string `json:"title"`
	LastMessageText  string `json:"last_message_text"`
	LastMessageAtMs  int64  `json:"last_message_at_ms"`
	ParticipantCount int    `json:"participant_count"`
	UnreadCount      int    `json:"unread_count"`
}

type GetConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type GetConversationResponse struct {
	Conversation Conversation `json:"conversation"`
}

// Conversation is the catalog entry joined with its persisted state.
type Conversation struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ParticipantCount int    `json:"participant_count"`
	LastMessageText  string `json:"last_message_text"`
	LastMessageAtMs  int64  `json:"last_message_at_ms"`
	UnreadCount      int    `json:"unread_count"`
	IsMember         bool   `json:"is_member"`
	MessageCount     int    `json:"message_count"`
}

// ListMessagesRequest reads a conversation's history without marking it
// read or seeding it.
type ListMessagesRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type OpenConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type OpenConversationResponse struct {
	Messages []Message `json:"messages"`
}

type Message struct {
	ID              string `json:"id"`
	ConversationID  string `json:"conversation_id"`
	SenderID        string `json:"sender_id"`
	SenderName      string `json:"sender_name"`
	SenderAvatar    string `json:"sender_avatar"`
	Text            string `json:"text"`
	SentAtMs        int64  `json:"sent_at_ms"`
	FromCurrentUser bool   `json:"from_current_user"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	// Sender is who the message is from. Nil sends as the current user.
	Sender *Sender `json:"sender,omitempty"`
}

type Sender struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type SendMessageResponse struct {
	Message Message `json:"message"`
}

type JoinConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type JoinConversationResponse struct{}

type WatchEventsRequest struct {
	// Namespace filters by kind prefix, e.g. "conversation.". Empty
	// streams everything.
	Namespace string `json:"namespace,omitempty"`
}

// EventEnvelope is one bus event as streamed by WatchEvents.
type EventEnvelope struct {
	EventID        string `json:"event_id"`
	Profile        string `json:"profile"`
	Kind           string `json:"kind"`
	OccurredAtMs   int64  `json:"occurred_at_ms"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
}
