package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
	title string
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements ui.Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(conv *api.Conversation) {
	ci.Clear()
	if conv == nil {
		return
	}
	_, _ = fmt.Fprint(ci, renderConversationInfo(conv, ci.theme, time.Now()))
	ci.SetTitle(fmt.Sprintf(" %s Details ", tview.Escape(sanitizeForTerminal(conv.Title))))
}

func renderConversationInfo(conv *api.Conversation, theme *ui.Theme, now time.Time) string {
	fg := ui.ColorTag(theme.FgColor)
	ct := ui.ColorTag(theme.CounterColor)

	lastActive := formatTimestamp(conv.LastMessageAtMs, now)
	if lastActive == "" {
		lastActive = "-"
	}
	member := "no"
	if conv.IsMember {
		member = "yes"
	}

	rows := []struct{ label, value string }{
		{"Title:", conv.Title},
		{"ID:", conv.ID},
		{"Member:", member},
		{"People:", fmt.Sprint(conv.ParticipantCount)},
		{"Messages:", fmt.Sprint(conv.MessageCount)},
		{"Unread:", fmt.Sprint(conv.UnreadCount)},
		{"Last Active:", lastActive},
		{"Last Message:", conv.LastMessageText},
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, " [%s::b]%-13s[-:-:-] [%s]%s[-]\n", fg, r.label, ct, tview.Escape(sanitizeForTerminal(r.value)))
	}
	return b.String()
}
