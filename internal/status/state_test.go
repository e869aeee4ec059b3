package status

import (
	"testing"

	"github.com/matheus3301/huddle/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, Migrating},
		{Booting, Error},
		{Migrating, Ready},
		{Migrating, Error},
		{Ready, Degraded},
		{Ready, Stopping},
		{Degraded, Ready},
		{Error, Booting},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, Ready},
		{Migrating, Degraded},
		{Stopping, Ready},
		{Ready, Migrating},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err == nil {
				t.Errorf("Transition(%s -> %s) should fail", tt.from, tt.to)
			}
			if m.Current() != tt.from {
				t.Errorf("state = %s, want unchanged %s", m.Current(), tt.from)
			}
		})
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("daemon.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Migrating); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != EventStatusChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, EventStatusChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != Migrating {
		t.Errorf("change = %v -> %v, want BOOTING -> MIGRATING", change.From, change.To)
	}
}

func TestReasonIsKeptUntilNextTransition(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Ready)

	if err := m.TransitionWithReason(Degraded, "store write failed"); err != nil {
		t.Fatal(err)
	}
	if m.Reason() != "store write failed" {
		t.Errorf("Reason() = %q", m.Reason())
	}
	if err := m.Transition(Ready); err != nil {
		t.Fatal(err)
	}
	if m.Reason() != "" {
		t.Errorf("Reason() after recovery = %q, want empty", m.Reason())
	}
}

// A failed migration can be retried from scratch.
func TestErrorRestartLifecycle(t *testing.T) {
	m := NewMachine(nil)

	steps := []State{Migrating, Error, Booting, Migrating, Ready}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
	if m.Current() != Ready {
		t.Errorf("final state = %s, want READY", m.Current())
	}
}

func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:   {},
		Migrating: {Migrating},
		Ready:     {Migrating, Ready},
		Degraded:  {Migrating, Ready, Degraded},
		Stopping:  {Migrating, Ready, Stopping},
		Error:     {Error},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
