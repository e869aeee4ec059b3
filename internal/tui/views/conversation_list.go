package views

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the main chat list view.
type ConversationList struct {
	*tview.Table
	theme  *ui.Theme
	chats  []api.Chat
	total  int
	filter string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Chats ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Name implements ui.Component.
func (cl *ConversationList) Name() string { return "Chats" }

// Hints implements ui.Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: ":", Description: "Command"},
		{Key: "r", Description: "Reload"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update replaces the rows. chats is the already filtered list; total is the
// size of the unfiltered one.
func (cl *ConversationList) Update(chats []api.Chat, total int, filter string) {
	cl.chats = chats
	cl.total = total
	cl.filter = filter
	cl.render()
}

func (cl *ConversationList) render() {
	selected, _ := cl.GetSelection()
	cl.Clear()

	headers := []struct {
		text  string
		exp   int
		align int
	}{
		{" TITLE", 2, tview.AlignLeft},
		{" LAST MESSAGE", 3, tview.AlignLeft},
		{"TIME ", 0, tview.AlignRight},
		{"PEOPLE ", 0, tview.AlignRight},
		{"UNREAD ", 0, tview.AlignRight},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetAlign(h.align).
			SetExpansion(h.exp))
	}

	for i, chat := range cl.chats {
		row := i + 1
		fg := cl.theme.FgColor
		unread := ""
		if chat.UnreadCount > 0 {
			fg = cl.theme.UnreadColor
			unread = strconv.Itoa(chat.UnreadCount) + " "
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(chat.Title))).SetExpansion(2).SetTextColor(fg))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(chat.LastMessageText))).SetExpansion(3).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(formatTimestamp(chat.LastMessageAtMs, time.Now())+" ").SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 3, tview.NewTableCell(strconv.Itoa(chat.ParticipantCount)+" ").SetTextColor(cl.theme.CounterColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 4, tview.NewTableCell(unread).SetTextColor(cl.theme.UnreadColor).SetAttributes(tcell.AttrBold).SetAlign(tview.AlignRight))
	}

	if len(cl.chats) > 0 {
		switch {
		case selected < 1:
			cl.Select(1, 0)
		case selected > len(cl.chats):
			cl.Select(len(cl.chats), 0)
		}
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Chats (%d/%d) filter: %s ", len(cl.chats), cl.total, tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Chats (%d) ", cl.total))
	}
}

// SelectedChat returns the ID of the highlighted conversation.
func (cl *ConversationList) SelectedChat() string {
	row, _ := cl.GetSelection()
	return cl.ChatByIndex(row)
}

// ChatByIndex returns the ID of the Nth visible conversation (1-based).
func (cl *ConversationList) ChatByIndex(n int) string {
	if n < 1 || n > len(cl.chats) {
		return ""
	}
	return cl.chats[n-1].ConversationID
}

// formatTimestamp shows the clock time for today and the date otherwise.
func formatTimestamp(ms int64, now time.Time) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms).In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
