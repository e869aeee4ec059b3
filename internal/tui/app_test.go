package tui

import (
	"context"
	"math/rand/v2"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/catalog"
	"github.com/matheus3301/huddle/internal/chatlist"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/kv"
	"github.com/matheus3301/huddle/internal/readstate"
	"github.com/matheus3301/huddle/internal/status"
	"github.com/matheus3301/huddle/internal/store"
	"google.golang.org/grpc"
)

const welcomeID = "evt-welcome"

var sam = &api.Sender{ID: "p-sam", Name: "Sam"}

// startDaemon serves a fresh in-memory daemon and returns a client for it.
func startDaemon(t *testing.T) *api.Client {
	t.Helper()

	tmpDir, err := os.MkdirTemp("/tmp", "huddle-tui-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })
	socketPath := filepath.Join(tmpDir, "d.sock")

	cfg := config.Default()
	st := store.New(kv.NewMemory())
	b := bus.New()
	machine := status.NewMachine(b)
	for _, s := range []status.State{status.Migrating, status.Ready} {
		if err := machine.Transition(s); err != nil {
			t.Fatal(err)
		}
	}
	cat := catalog.Default()
	builder := chatlist.NewBuilder(st, chatlist.Bootstrap{
		ConversationIDs: cfg.Bootstrap.Conversations,
		Placeholders:    cfg.Bootstrap.Placeholders,
		UnreadMin:       cfg.Bootstrap.UnreadMin,
		UnreadMax:       cfg.Bootstrap.UnreadMax,
		MaxAge:          cfg.Bootstrap.MaxAge.Duration,
	}, chatlist.WithRand(rand.New(rand.NewPCG(1, 2))))
	identity := readstate.Sender{ID: cfg.Identity.ID, Name: cfg.Identity.Name, Avatar: cfg.Identity.Avatar}
	ctl := readstate.NewController(st, b, identity, cat, nil, nil)

	svc := api.NewService("test", machine, cat, st, builder, ctl, b, nil)
	srv := grpc.NewServer()
	api.RegisterHuddleServer(srv, svc)
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(srv.Stop)

	c, err := api.Dial(socketPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testCtx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

// openThread opens id the way selecting it in the list does, minus the
// goroutine.
func openThread(t *testing.T, a *App, id string) {
	t.Helper()
	if err := a.vm.Open(testCtx(t), id); err != nil {
		t.Fatal(err)
	}
	a.thread.SetConversation(id, id)
	a.pages.Push(pageThread)
}

func incoming(t *testing.T, a *App, c *api.Client, text string) {
	t.Helper()
	resp, err := c.SendMessage(testCtx(t), welcomeID, text, sam)
	if err != nil {
		t.Fatal(err)
	}
	a.handleEvent(&api.EventEnvelope{
		Kind:           readstate.EventMessageAppended,
		ConversationID: welcomeID,
		MessageID:      resp.Message.ID,
	})
}

func unread(t *testing.T, c *api.Client, id string) int {
	t.Helper()
	resp, err := c.GetConversation(testCtx(t), id)
	if err != nil {
		t.Fatal(err)
	}
	return resp.Conversation.UnreadCount
}

func TestLeftThreadCountsNewMessagesAsUnread(t *testing.T) {
	c := startDaemon(t)
	a := NewApp(c)
	t.Cleanup(a.cancel)

	openThread(t, a, welcomeID)
	if n := unread(t, c, welcomeID); n != 0 {
		t.Fatalf("unread after open = %d, want 0", n)
	}

	a.back()
	if a.pages.Current() != pageChats {
		t.Fatalf("current page = %q, want chats", a.pages.Current())
	}
	if id := a.vm.ActiveID(); id != "" {
		t.Fatalf("active conversation = %q after leaving the thread", id)
	}

	incoming(t, a, c, "Anyone bringing snacks?")
	if n := unread(t, c, welcomeID); n != 1 {
		t.Errorf("unread = %d, want 1 for a message sent after leaving", n)
	}
}

func TestEscapeFromThreadClosesConversation(t *testing.T) {
	c := startDaemon(t)
	a := NewApp(c)
	t.Cleanup(a.cancel)

	openThread(t, a, welcomeID)
	a.pages.Push(pageDetails)

	a.pop()
	if a.vm.ActiveID() != welcomeID {
		t.Error("leaving details closed the thread underneath")
	}
	a.pop()
	if a.vm.ActiveID() != "" {
		t.Error("leaving the thread kept it active")
	}
}

func TestVisibleThreadReloadsWithoutMarkingRead(t *testing.T) {
	c := startDaemon(t)
	a := NewApp(c)
	t.Cleanup(a.cancel)

	openThread(t, a, welcomeID)
	before := len(a.vm.Messages())

	incoming(t, a, c, "Running late")
	incoming(t, a, c, "Save me a seat")

	msgs := a.vm.Messages()
	if len(msgs) != before+2 || msgs[len(msgs)-1].Text != "Save me a seat" {
		t.Errorf("thread has %d messages, want %d ending with the latest", len(msgs), before+2)
	}
	if n := unread(t, c, welcomeID); n != 2 {
		t.Errorf("unread = %d, want 2 until the thread is opened again", n)
	}
	if conv := a.vm.Active(); conv == nil || conv.UnreadCount != 2 {
		t.Errorf("active conversation = %+v, want unread 2", conv)
	}
}
