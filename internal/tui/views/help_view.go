package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	_, _ = fmt.Fprint(hv, renderHelp(theme))
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"/", "Filter chats"},
		{"?", "Help"},
		{"Esc", "Cancel / Go back"},
		{"q", "Quit / Back"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Chat List", [][2]string{
		{"Enter", "Open conversation"},
		{"1-9", "Open the Nth chat"},
		{"0", "Clear filter"},
		{"r", "Reload chats"},
		{"j/k", "Move down / up"},
	}},
	{"Message Thread", [][2]string{
		{"i", "Focus composer"},
		{"d", "Conversation details"},
		{"Enter", "Send message (in composer)"},
		{"Esc", "Leave composer"},
	}},
	{"Commands", [][2]string{
		{":open <id|title>", "Open a conversation"},
		{":join <id>", "Join a conversation"},
		{":reload", "Reload chats"},
		{":help, :h", "Show this help"},
		{":quit, :q", "Quit"},
	}},
}

func renderHelp(theme *ui.Theme) string {
	kc := ui.ColorTag(theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-18s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	return b.String()
}
