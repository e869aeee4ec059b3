package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func runeEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestViewBindingShadowsGlobal(t *testing.T) {
	var got []string
	r := NewRegistry()
	r.AddGlobal(Rune('q', "Quit", func() { got = append(got, "global-q") }))
	r.AddView("thread", Rune('q', "Back", func() { got = append(got, "thread-q") }))

	if !r.HandleEvent("thread", runeEvent('q')) {
		t.Fatal("q not handled in thread")
	}
	if !r.HandleEvent("chats", runeEvent('q')) {
		t.Fatal("q not handled in chats")
	}
	if len(got) != 2 || got[0] != "thread-q" || got[1] != "global-q" {
		t.Errorf("handlers ran = %v", got)
	}
}

func TestSpecialKeysAndMisses(t *testing.T) {
	hit := 0
	r := NewRegistry()
	r.AddView("chats", Key(tcell.KeyEnter, "Open", func() { hit++ }))

	if !r.HandleEvent("chats", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Error("Enter not handled")
	}
	if r.HandleEvent("thread", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Error("Enter handled outside its view")
	}
	if r.HandleEvent("chats", runeEvent('x')) {
		t.Error("unbound rune handled")
	}
	if hit != 1 {
		t.Errorf("handler ran %d times, want 1", hit)
	}
}

func TestFirstRegisteredWins(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(Rune('r', "Reload", nil))
	r.AddGlobal(Rune('r', "Other", nil))
	if a := r.Lookup("chats", runeEvent('r')); a == nil || a.Description != "Reload" {
		t.Errorf("Lookup = %+v", a)
	}
	if r.HandleEvent("chats", runeEvent('r')) {
		t.Error("action without handler reported as handled")
	}
}
