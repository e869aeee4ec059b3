package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
	grpcstatus "google.golang.org/grpc/status"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// flashTTL is how long each level stays on screen.
var flashTTL = map[FlashLevel]time.Duration{
	FlashInfo: 5 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  10 * time.Second,
}

// FlashMessage is a transient notification.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the latest notification. It is written from RPC
// goroutines and read from the UI goroutine.
type FlashModel struct {
	mu      sync.Mutex
	current *FlashMessage
	now     func() time.Time
	watchCh chan FlashMessage
}

// NewFlashModel creates an empty flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{
		now:     time.Now,
		watchCh: make(chan FlashMessage, 8),
	}
}

// Info flashes an informational message.
func (f *FlashModel) Info(msg string) { f.push(msg, FlashInfo) }

// Warn flashes a warning, e.g. command usage.
func (f *FlashModel) Warn(msg string) { f.push(msg, FlashWarn) }

// Err flashes an error. Daemon errors show only their status message, not
// the "rpc error: code = ..." wrapping.
func (f *FlashModel) Err(err error) {
	if err == nil {
		return
	}
	if st, ok := grpcstatus.FromError(err); ok {
		f.push(st.Message(), FlashErr)
		return
	}
	f.push(err.Error(), FlashErr)
}

func (f *FlashModel) push(text string, level FlashLevel) {
	m := FlashMessage{Text: text, Level: level}
	f.mu.Lock()
	m.Expires = f.now().Add(flashTTL[level])
	f.current = &m
	f.mu.Unlock()

	// Watchers that fall behind miss messages; GetMessage still has the latest.
	select {
	case f.watchCh <- m:
	default:
	}
}

// GetMessage returns the current message, or nil once it has expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil || f.now().After(f.current.Expires) {
		return nil
	}
	m := *f.current
	return &m
}

// Watch returns a channel that receives each message as it is flashed.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar is the one-line notification area under the pages.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a flash bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update shows msg, or clears the bar when msg is nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg != nil {
		_, _ = fmt.Fprint(fb, fb.render(*msg))
	}
}

func (fb *FlashBar) render(msg FlashMessage) string {
	color, mark := fb.theme.FlashInfoColor, "i"
	switch msg.Level {
	case FlashWarn:
		color, mark = fb.theme.FlashWarnColor, "!"
	case FlashErr:
		color, mark = fb.theme.FlashErrColor, "x"
	}
	return fmt.Sprintf(" [%s::b]%s[-:-:-] [%s]%s[-]", colorName(color), mark, colorName(color), tview.Escape(msg.Text))
}
