// Package status tracks the daemon's lifecycle state.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/huddle/internal/bus"
)

// EventStatusChanged is published on every successful transition.
const EventStatusChanged = "daemon.status_changed"

// State is a daemon runtime state.
type State string

const (
	Booting   State = "BOOTING"
	Migrating State = "MIGRATING"
	Ready     State = "READY"
	Degraded  State = "DEGRADED"
	Stopping  State = "STOPPING"
	Error     State = "ERROR"
)

var validTransitions = map[State][]State{
	Booting:   {Migrating, Error},
	Migrating: {Ready, Error},
	Ready:     {Degraded, Stopping, Error},
	Degraded:  {Ready, Stopping, Error},
	Stopping:  {},
	Error:     {Booting, Stopping},
}

// Machine enforces the allowed transitions between states.
type Machine struct {
	mu      sync.RWMutex
	current State
	reason  string
	bus     *bus.Bus
}

// NewMachine creates a machine in Booting. b may be nil.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reason returns the note attached to the last transition, if any.
func (m *Machine) Reason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reason
}

// Transition moves to the given state.
func (m *Machine) Transition(to State) error {
	return m.TransitionWithReason(to, "")
}

// TransitionWithReason moves to the given state and records why, which is
// surfaced by GetStatus while the daemon is degraded or failed.
func (m *Machine) TransitionWithReason(to State, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.reason = reason
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    EventStatusChanged,
			Payload: StatusChange{From: from, To: to, Reason: reason},
		})
	}
	return nil
}

// StatusChange is the payload of daemon.status_changed.
type StatusChange struct {
	From   State
	To     State
	Reason string
}
