package model

import (
	"context"
	"errors"
	"testing"

	"github.com/matheus3301/huddle/internal/api"
)

type fakeDaemon struct {
	chats  []api.Chat
	msgs   map[string][]api.Message
	joined []string
	opens  int
	err    error
}

func (f *fakeDaemon) GetStatus(context.Context) (*api.GetStatusResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.GetStatusResponse{Profile: "main", Status: "READY"}, nil
}

func (f *fakeDaemon) ListChats(context.Context, int) (*api.ListChatsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.ListChatsResponse{Chats: f.chats}, nil
}

func (f *fakeDaemon) GetConversation(_ context.Context, id string) (*api.GetConversationResponse, error) {
	return &api.GetConversationResponse{Conversation: api.Conversation{ID: id, MessageCount: len(f.msgs[id])}}, nil
}

func (f *fakeDaemon) ListMessages(_ context.Context, id string) (*api.ListMessagesResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.ListMessagesResponse{Messages: f.msgs[id]}, nil
}

func (f *fakeDaemon) OpenConversation(_ context.Context, id string) (*api.OpenConversationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opens++
	return &api.OpenConversationResponse{Messages: f.msgs[id]}, nil
}

func (f *fakeDaemon) SendMessage(_ context.Context, id, text string, _ *api.Sender) (*api.SendMessageResponse, error) {
	m := api.Message{ConversationID: id, Text: text, FromCurrentUser: true}
	f.msgs[id] = append(f.msgs[id], m)
	return &api.SendMessageResponse{Message: m}, nil
}

func (f *fakeDaemon) JoinConversation(_ context.Context, id string) error {
	f.joined = append(f.joined, id)
	return nil
}

func newFake() *fakeDaemon {
	return &fakeDaemon{
		chats: []api.Chat{
			{ConversationID: "evt-playground", Title: "Saturday Playground Meetup", LastMessageText: "Forecast says sunny"},
			{ConversationID: "evt-welcome", Title: "Welcome to Huddle", LastMessageText: "Hi all"},
			{ConversationID: "evt-storytime", Title: "Library Storytime", LastMessageText: "Dinosaurs this week"},
		},
		msgs: map[string][]api.Message{},
	}
}

func TestFilterChats(t *testing.T) {
	chats := newFake().chats
	tests := []struct {
		q    string
		want []string
	}{
		{"", []string{"evt-playground", "evt-welcome", "evt-storytime"}},
		{"PLAY", []string{"evt-playground"}},
		{"sunny", []string{"evt-playground"}},
		{"  storytime ", []string{"evt-storytime"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			got := FilterChats(chats, tt.q)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterChats(%q) = %d chats, want %d", tt.q, len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ConversationID != tt.want[i] {
					t.Errorf("FilterChats(%q)[%d] = %s, want %s", tt.q, i, got[i].ConversationID, tt.want[i])
				}
			}
		})
	}
}

func TestLoadChatsAndFilter(t *testing.T) {
	vm := NewViewModel(newFake())
	if err := vm.LoadChats(context.Background()); err != nil {
		t.Fatal(err)
	}
	vm.SetFilter("welcome")
	if got := vm.Chats(); len(got) != 1 || got[0].ConversationID != "evt-welcome" {
		t.Errorf("Chats() = %+v", got)
	}
	if vm.TotalChats() != 3 {
		t.Errorf("TotalChats() = %d, want 3", vm.TotalChats())
	}
	if vm.Filter() != "welcome" {
		t.Errorf("Filter() = %q", vm.Filter())
	}
}

func TestFindChat(t *testing.T) {
	vm := NewViewModel(newFake())
	_ = vm.LoadChats(context.Background())

	if c, ok := vm.FindChat("evt-welcome"); !ok || c.Title != "Welcome to Huddle" {
		t.Errorf("FindChat(id) = %+v, %v", c, ok)
	}
	if c, ok := vm.FindChat("library"); !ok || c.ConversationID != "evt-storytime" {
		t.Errorf("FindChat(title) = %+v, %v", c, ok)
	}
	if _, ok := vm.FindChat("nothing"); ok {
		t.Error("FindChat matched nothing")
	}
}

func TestOpenAndSend(t *testing.T) {
	d := newFake()
	d.msgs["evt-welcome"] = []api.Message{{Text: "Welcome!"}}
	vm := NewViewModel(d)

	if err := vm.Send(context.Background(), "ignored"); err != nil {
		t.Fatal(err)
	}
	if len(d.msgs) != 1 {
		t.Error("Send with no active conversation reached the daemon")
	}

	if err := vm.Open(context.Background(), "evt-welcome"); err != nil {
		t.Fatal(err)
	}
	if vm.ActiveID() != "evt-welcome" || vm.Active().ID != "evt-welcome" {
		t.Errorf("active = %q / %+v", vm.ActiveID(), vm.Active())
	}
	if err := vm.Send(context.Background(), "Hello!"); err != nil {
		t.Fatal(err)
	}
	msgs := vm.Messages()
	if len(msgs) != 2 || msgs[1].Text != "Hello!" {
		t.Errorf("Messages() = %+v", msgs)
	}
}

func TestReloadDoesNotMarkRead(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)

	if err := vm.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.opens != 0 {
		t.Error("Reload with no active conversation opened one")
	}

	if err := vm.Open(context.Background(), "evt-welcome"); err != nil {
		t.Fatal(err)
	}
	d.msgs["evt-welcome"] = append(d.msgs["evt-welcome"], api.Message{Text: "From Sam"})
	if err := vm.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := vm.Send(context.Background(), "Thanks Sam"); err != nil {
		t.Fatal(err)
	}
	if d.opens != 1 {
		t.Errorf("OpenConversation called %d times, want only the explicit open", d.opens)
	}
	if msgs := vm.Messages(); len(msgs) != 2 || msgs[0].Text != "From Sam" {
		t.Errorf("Messages() = %+v", msgs)
	}
}

func TestCloseForgetsActive(t *testing.T) {
	d := newFake()
	d.msgs["evt-welcome"] = []api.Message{{Text: "Welcome!"}}
	vm := NewViewModel(d)
	if err := vm.Open(context.Background(), "evt-welcome"); err != nil {
		t.Fatal(err)
	}

	vm.Close()
	if vm.ActiveID() != "" || vm.Active() != nil || vm.Messages() != nil {
		t.Errorf("after Close: %q / %+v / %+v", vm.ActiveID(), vm.Active(), vm.Messages())
	}
	if err := vm.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if vm.ActiveID() != "" {
		t.Error("Reload revived a closed conversation")
	}
}

func TestJoinReloadsChats(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)
	if err := vm.Join(context.Background(), "evt-storytime"); err != nil {
		t.Fatal(err)
	}
	if len(d.joined) != 1 || d.joined[0] != "evt-storytime" {
		t.Errorf("joined = %v", d.joined)
	}
	if vm.TotalChats() != 3 {
		t.Error("chat list not reloaded after join")
	}
}

func TestLoadStatusOffline(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)
	if err := vm.LoadStatus(context.Background()); err != nil {
		t.Fatal(err)
	}
	if vm.Status() == nil {
		t.Fatal("status not cached")
	}

	d.err = errors.New("connection refused")
	if err := vm.LoadStatus(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if vm.Status() != nil {
		t.Error("status kept after daemon went away")
	}
}
