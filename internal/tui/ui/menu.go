package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu displays the top page's keyboard shortcuts, one per line.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints. Numeric shortcuts are listed last.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	for _, numeric := range []bool{false, true} {
		for _, h := range hints {
			if h.Numeric != numeric {
				continue
			}
			kc := keyColor
			if numeric {
				kc = numColor
			}
			_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] %s\n", kc, tview.Escape(h.Key), h.Description)
		}
	}
}
