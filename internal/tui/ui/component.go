package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // true for 0-9 shortcuts (displayed in a different color)
}

// Component is a page that can be pushed on the page stack. Name labels its
// breadcrumb and Hints fills the menu while it is on top.
type Component interface {
	Name() string
	Hints() []MenuHint
}
