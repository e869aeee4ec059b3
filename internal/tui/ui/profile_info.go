package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// ProfileData is what the header shows about the connected daemon.
type ProfileData struct {
	Profile       string
	Identity      string
	Status        string
	Reason        string
	Conversations int
	Messages      int
	Uptime        time.Duration
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the profile info. A nil data means the daemon is
// unreachable.
func (pi *ProfileInfo) Update(data *ProfileData) {
	pi.Clear()
	_, _ = fmt.Fprint(pi, pi.render(data))
}

func (pi *ProfileInfo) render(data *ProfileData) string {
	fg := colorName(pi.theme.FgColor)
	ct := colorName(pi.theme.CounterColor)
	if data == nil {
		return fmt.Sprintf("[%s::b]Status:[-:-:-]  [%s]OFFLINE[-]", fg, colorName(pi.theme.FlashErrColor))
	}

	status := data.Status
	if data.Reason != "" {
		status += " (" + data.Reason + ")"
	}
	row := func(label, value string) string {
		return fmt.Sprintf("[%s::b]%-8s[-:-:-] [%s]%s[-]", fg, label+":", ct, tview.Escape(value))
	}
	return row("Profile", data.Profile) + "\n" +
		row("You", data.Identity) + "\n" +
		row("Status", status) + "\n" +
		row("Chats", fmt.Sprint(data.Conversations)) + "\n" +
		row("Msgs", fmt.Sprint(data.Messages)) + "\n" +
		row("Uptime", formatDuration(data.Uptime))
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
