package ui

import "github.com/rivo/tview"

// Page is a component that is also a drawable primitive.
type Page interface {
	Component
	tview.Primitive
}

// Pages is a stack of pages over tview.Pages. Pushing an already stacked
// page brings it to the top instead of stacking it twice.
type Pages struct {
	*tview.Pages
	stack    []string
	pages    map[string]Page
	onChange func(top Page, labels []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{
		Pages: tview.NewPages(),
		pages: make(map[string]Page),
	}
}

// Register adds a page under key without showing it.
func (p *Pages) Register(key string, page Page) {
	p.pages[key] = page
	p.AddPage(key, page, true, false)
}

// SetOnChange sets a callback that fires when the stack changes. It gets the
// top page and the breadcrumb labels bottom to top.
func (p *Pages) SetOnChange(fn func(top Page, labels []string)) {
	p.onChange = fn
}

// Push shows the page registered under key on top of the stack.
func (p *Pages) Push(key string) {
	if _, ok := p.pages[key]; !ok {
		return
	}
	for i, k := range p.stack {
		if k == key {
			p.stack = append(p.stack[:i], p.stack[i+1:]...)
			break
		}
	}
	if len(p.stack) > 0 {
		p.HidePage(p.stack[len(p.stack)-1])
	}
	p.stack = append(p.stack, key)
	p.ShowPage(key)
	p.SendToFront(key)
	p.notify()
}

// Pop removes the top page and shows the previous one. The last page is
// never popped. Returns the key of the popped page, or "".
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stack = p.stack[:len(p.stack)-1]
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current)
	p.SendToFront(current)
	p.notify()
	return top
}

// Current returns the key of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Top returns the top page, or nil.
func (p *Pages) Top() Page {
	return p.pages[p.Current()]
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Reset clears the stack down to the page under key.
func (p *Pages) Reset(key string) {
	for _, k := range p.stack {
		p.HidePage(k)
	}
	p.stack = nil
	p.Push(key)
}

// Refresh re-announces the current stack, e.g. after a page renamed itself.
func (p *Pages) Refresh() {
	p.notify()
}

func (p *Pages) labels() []string {
	out := make([]string, 0, len(p.stack))
	for _, k := range p.stack {
		out = append(out, p.pages[k].Name())
	}
	return out
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Top(), p.labels())
	}
}
