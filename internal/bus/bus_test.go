package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conversation.", 10)
	defer unsub()

	b.Publish(Event{Kind: "conversation.read", Payload: "evt1"})

	select {
	case evt := <-ch:
		if evt.Kind != "conversation.read" {
			t.Errorf("got kind %q, want conversation.read", evt.Kind)
		}
		if evt.ID == "" {
			t.Error("event ID was not filled in")
		}
		if evt.Timestamp.IsZero() {
			t.Error("event timestamp was not filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("daemon.", 10)
	defer unsub()

	b.Publish(Event{Kind: "conversation.joined"})
	b.Publish(Event{Kind: "daemon.status_changed"})

	select {
	case evt := <-ch:
		if evt.Kind != "daemon.status_changed" {
			t.Errorf("got kind %q, want daemon.status_changed", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyNamespaceMatchesAll(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 10)
	defer unsub()

	b.Publish(Event{Kind: "conversation.read"})
	b.Publish(Event{Kind: "daemon.status_changed"})

	if got := len(ch); got != 2 {
		t.Errorf("buffered %d events, want 2", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conversation.", 10)
	unsub()
	unsub()

	b.Publish(Event{Kind: "conversation.read"})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	b.Publish(Event{Kind: "test.one"})
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
	if got := b.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

func TestEventNamespace(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"conversation.read", "conversation."},
		{"daemon.status_changed", "daemon."},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := (Event{Kind: tt.kind}).Namespace(); got != tt.want {
			t.Errorf("Namespace(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
