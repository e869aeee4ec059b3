package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/lock"
	"github.com/matheus3301/huddle/internal/profile"
	"github.com/matheus3301/huddle/internal/status"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// newHome points HUDDLE_HOME at a fresh short directory so the unix
// socket path stays under the platform length limit.
func newHome(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "huddle-d-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv(profile.HomeEnv, dir)
	return dir
}

func startDaemon(t *testing.T, name string) (*fxtest.App, *api.Client) {
	t.Helper()
	app := fxtest.New(t, Module(Params{ProfileName: name}))
	app.RequireStart()

	c, err := api.Dial(profile.SocketPath(name))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return app, c
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDaemonLifecycle(t *testing.T) {
	newHome(t)
	app, c := startDaemon(t, "test")

	st, err := c.GetStatus(callCtx(t))
	if err != nil {
		t.Fatalf("GetStatus error = %v", err)
	}
	if st.Profile != "test" || st.Status != string(status.Ready) {
		t.Errorf("status = %+v, want profile test READY", st)
	}

	chats, err := c.ListChats(callCtx(t), 0)
	if err != nil {
		t.Fatalf("ListChats error = %v", err)
	}
	if len(chats.Chats) != len(config.Default().Bootstrap.Conversations) {
		t.Errorf("got %d chats, want the bootstrap set", len(chats.Chats))
	}

	if _, err := c.SendMessage(callCtx(t), "evt-bake-sale", "I can bring brownies", nil); err != nil {
		t.Fatalf("SendMessage error = %v", err)
	}
	if err := c.JoinConversation(callCtx(t), "evt-bake-sale"); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(profile.DBPath("test")); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if _, err := lock.Acquire(profile.LockPath("test")); err == nil {
		t.Error("profile lock was not held while running")
	}

	app.RequireStop()
	if _, err := os.Stat(profile.SocketPath("test")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket left behind after stop: %v", err)
	}

	// State survives a restart.
	app, c = startDaemon(t, "test")
	defer app.RequireStop()

	conv, err := c.GetConversation(callCtx(t), "evt-bake-sale")
	if err != nil {
		t.Fatal(err)
	}
	got := conv.Conversation
	if !got.IsMember || got.LastMessageText != "I can bring brownies" || got.MessageCount != 1 {
		t.Errorf("after restart: %+v", got)
	}

	again, err := c.ListChats(callCtx(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if again.Chats[0].ConversationID != "evt-bake-sale" {
		t.Errorf("most recent chat after restart = %q", again.Chats[0].ConversationID)
	}
}

func TestSecondDaemonFailsOnHeldLock(t *testing.T) {
	newHome(t)
	app, _ := startDaemon(t, "locked")
	defer app.RequireStop()

	second := fx.New(
		Module(Params{ProfileName: "locked", SocketPath: filepath.Join(profile.Dir("locked"), "second.sock")}),
		fx.NopLogger,
	)
	var held *lock.HeldError
	if err := second.Err(); !errors.As(err, &held) {
		t.Fatalf("second daemon error = %v, want HeldError", err)
	}
}

func TestCatalogFileOverridesDefault(t *testing.T) {
	newHome(t)
	catalogTOML := "[[conversation]]\nid = \"evt-welcome\"\ntitle = \"Hello neighbours\"\nparticipants = 3\n"
	if err := os.WriteFile(profile.CatalogPath(), []byte(catalogTOML), 0600); err != nil {
		t.Fatal(err)
	}

	app, c := startDaemon(t, "custom")
	defer app.RequireStop()

	chats, err := c.ListChats(callCtx(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats.Chats) != 1 || chats.Chats[0].Title != "Hello neighbours" {
		t.Errorf("chats = %+v", chats.Chats)
	}
	if _, err := c.OpenConversation(callCtx(t), "evt-playground"); err == nil {
		t.Error("conversation missing from the catalog file was found")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	newHome(t)
	cfg := config.Default()
	cfg.MetricsAddr = "127.0.0.1:0"
	if err := config.Save(profile.ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}

	var ms *MetricsServer
	app := fxtest.New(t, Module(Params{ProfileName: "metrics"}), fx.Populate(&ms))
	app.RequireStart()
	defer app.RequireStop()

	c, err := api.Dial(profile.SocketPath("metrics"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	if _, err := c.ListChats(callCtx(t), 0); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get("http://" + ms.Addr() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "huddle_chatlist_builds_total 1") {
		t.Errorf("metrics output missing build counter:\n%s", body)
	}
}
