// Package model holds the TUI's client-side state, fetched from the daemon.
package model

import (
	"context"
	"strings"
	"sync"

	"github.com/matheus3301/huddle/internal/api"
)

// Daemon is the part of the API client the TUI uses.
type Daemon interface {
	GetStatus(ctx context.Context) (*api.GetStatusResponse, error)
	ListChats(ctx context.Context, limit int) (*api.ListChatsResponse, error)
	GetConversation(ctx context.Context, id string) (*api.GetConversationResponse, error)
	ListMessages(ctx context.Context, id string) (*api.ListMessagesResponse, error)
	OpenConversation(ctx context.Context, id string) (*api.OpenConversationResponse, error)
	SendMessage(ctx context.Context, id, text string, sender *api.Sender) (*api.SendMessageResponse, error)
	JoinConversation(ctx context.Context, id string) error
}

// ViewModel caches daemon state for the views.
type ViewModel struct {
	mu sync.RWMutex

	daemon   Daemon
	status   *api.GetStatusResponse
	chats    []api.Chat
	filter   string
	activeID string
	active   *api.Conversation
	messages []api.Message
}

// NewViewModel creates a view model over d.
func NewViewModel(d Daemon) *ViewModel {
	return &ViewModel{daemon: d}
}

// LoadStatus fetches the daemon status. On error the cached status is
// cleared so the header shows the daemon as offline.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	resp, err := vm.daemon.GetStatus(ctx)
	vm.mu.Lock()
	vm.status = resp
	vm.mu.Unlock()
	return err
}

// LoadChats fetches the chat list.
func (vm *ViewModel) LoadChats(ctx context.Context) error {
	resp, err := vm.daemon.ListChats(ctx, 0)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.chats = resp.Chats
	vm.mu.Unlock()
	return nil
}

// Open opens a conversation: the daemon resets its unread count and returns
// the thread, which becomes the active one.
func (vm *ViewModel) Open(ctx context.Context, id string) error {
	resp, err := vm.daemon.OpenConversation(ctx, id)
	if err != nil {
		return err
	}
	conv, err := vm.daemon.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.activeID = id
	vm.active = &conv.Conversation
	vm.messages = resp.Messages
	vm.mu.Unlock()
	return nil
}

// Reload refetches the active conversation and its thread without marking
// it read. Only Open resets the unread count, so a thread left open does
// not swallow messages that arrive while the user is looking elsewhere.
func (vm *ViewModel) Reload(ctx context.Context) error {
	id := vm.ActiveID()
	if id == "" {
		return nil
	}
	conv, err := vm.daemon.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	resp, err := vm.daemon.ListMessages(ctx, id)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	// Closed or switched while the fetch was in flight.
	if vm.activeID != id {
		return nil
	}
	vm.active = &conv.Conversation
	vm.messages = resp.Messages
	return nil
}

// Close forgets the active conversation.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	vm.activeID = ""
	vm.active = nil
	vm.messages = nil
	vm.mu.Unlock()
}

// Send sends text to the active conversation as the current user and
// reloads the thread.
func (vm *ViewModel) Send(ctx context.Context, text string) error {
	id := vm.ActiveID()
	if id == "" {
		return nil
	}
	if _, err := vm.daemon.SendMessage(ctx, id, text, nil); err != nil {
		return err
	}
	return vm.Reload(ctx)
}

// Join joins a conversation and refreshes the chat list.
func (vm *ViewModel) Join(ctx context.Context, id string) error {
	if err := vm.daemon.JoinConversation(ctx, id); err != nil {
		return err
	}
	return vm.LoadChats(ctx)
}

// SetFilter sets the chat list filter.
func (vm *ViewModel) SetFilter(q string) {
	vm.mu.Lock()
	vm.filter = q
	vm.mu.Unlock()
}

// Filter returns the chat list filter.
func (vm *ViewModel) Filter() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.filter
}

// Chats returns the chats matching the filter, in list order.
func (vm *ViewModel) Chats() []api.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return FilterChats(vm.chats, vm.filter)
}

// TotalChats returns the unfiltered chat count.
func (vm *ViewModel) TotalChats() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.chats)
}

// FindChat returns the first chat whose title matches q, case-insensitively,
// preferring an exact ID match.
func (vm *ViewModel) FindChat(q string) (api.Chat, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, c := range vm.chats {
		if c.ConversationID == q {
			return c, true
		}
	}
	if m := FilterChats(vm.chats, q); len(m) > 0 {
		return m[0], true
	}
	return api.Chat{}, false
}

// ActiveID returns the open conversation's ID.
func (vm *ViewModel) ActiveID() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.activeID
}

// Active returns the open conversation, or nil.
func (vm *ViewModel) Active() *api.Conversation {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.active
}

// Messages returns the open conversation's thread.
func (vm *ViewModel) Messages() []api.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.messages
}

// Status returns the last fetched status, or nil when offline.
func (vm *ViewModel) Status() *api.GetStatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// FilterChats returns the chats whose title or last message contains q,
// case-insensitively. An empty q matches everything.
func FilterChats(chats []api.Chat, q string) []api.Chat {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return chats
	}
	var out []api.Chat
	for _, c := range chats {
		if strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.LastMessageText), q) {
			out = append(out, c)
		}
	}
	return out
}
