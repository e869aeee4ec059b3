package bus

import (
	"strings"
	"time"
)

// Event is a notification published on the bus after a store change or a
// daemon status change.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Namespace returns the part of Kind up to and including the first dot,
// which is what subscribers filter on.
func (e Event) Namespace() string {
	if i := strings.IndexByte(e.Kind, '.'); i >= 0 {
		return e.Kind[:i+1]
	}
	return e.Kind
}
