package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	UnreadColor       tcell.Color
	OwnMessageColor   tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DefaultTheme returns a dark theme with warm accents.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorWheat,
		BorderColor:       tcell.ColorDarkCyan,
		BorderFocusColor:  tcell.ColorLightCyan,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorSandyBrown,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorOrange,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorDarkCyan,
		MenuKeyColor:      tcell.ColorDarkCyan,
		NumericKeyColor:   tcell.ColorFuchsia,
		TitleColor:        tcell.ColorOrange,
		CounterColor:      tcell.ColorPapayaWhip,
		UnreadColor:       tcell.ColorLimeGreen,
		OwnMessageColor:   tcell.ColorLightSkyBlue,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDarkCyan,
	}
}

// Apply installs the theme as tview's global styles, so primitives created
// afterwards pick it up.
func (t *Theme) Apply() {
	tview.Styles.PrimitiveBackgroundColor = t.BgColor
	tview.Styles.ContrastBackgroundColor = t.BgColor
	tview.Styles.BorderColor = t.BorderColor
	tview.Styles.TitleColor = t.TitleColor
	tview.Styles.PrimaryTextColor = t.FgColor
	tview.Styles.SecondaryTextColor = t.MenuKeyColor
}

// ColorTag returns c as a tview color tag value.
func ColorTag(c tcell.Color) string {
	return colorName(c)
}

// colorName returns a tview-compatible color name string.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
