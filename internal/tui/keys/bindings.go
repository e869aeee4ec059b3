// Package keys maps key events to actions, per view with global fallbacks.
package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Rune binds a printable key.
func Rune(r rune, desc string, fn func()) *Action {
	return &Action{Key: tcell.KeyRune, Rune: r, Description: desc, Handler: fn}
}

// Key binds a special key.
func Key(k tcell.Key, desc string, fn func()) *Action {
	return &Action{Key: k, Description: desc, Handler: fn}
}

// Registry holds keybindings organized by scope. Bindings are matched in
// registration order, view bindings before global ones.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string][]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(action *Action) {
	r.global = append(r.global, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view string, action *Action) {
	r.views[view] = append(r.views[view], action)
}

// Lookup returns the action the event would trigger in view, or nil.
func (r *Registry) Lookup(view string, ev *tcell.EventKey) *Action {
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			return a
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			return a
		}
	}
	return nil
}

// HandleEvent dispatches a key event to the matching action in the given
// view. Returns true if a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	a := r.Lookup(view, ev)
	if a == nil || a.Handler == nil {
		return false
	}
	a.Handler()
	return true
}
