package views

import (
	"strings"
	"unicode"
)

// unrenderable lists codepoints tcell draws badly or that let message text
// rearrange the screen: emoji modifiers and joiners that split one glyph
// across cells, and bidi overrides.
var unrenderable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1}, // zero width joiner
		{Lo: 0x202a, Hi: 0x202e, Stride: 1}, // bidi embeddings and overrides
		{Lo: 0x2066, Hi: 0x2069, Stride: 1}, // bidi isolates
		{Lo: 0xfe00, Hi: 0xfe0f, Stride: 1}, // variation selectors
	},
	R32: []unicode.Range32{
		{Lo: 0x1f3fb, Hi: 0x1f3ff, Stride: 1}, // skin tone modifiers
		{Lo: 0xe0100, Hi: 0xe01ef, Stride: 1}, // variation selectors supplement
	},
}

// sanitizeForTerminal drops codepoints in unrenderable and control
// characters other than newline and tab. A thumbs up with a skin tone
// becomes a plain thumbs up, which fits its two cells.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unrenderable, r) {
			return -1
		}
		return r
	}, s)
}
