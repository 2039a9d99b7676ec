package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncate shortens a string to max visual width (cells), adding an
// ellipsis if needed. Uses go-runewidth so wide characters count correctly.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}
	return runewidth.Truncate(s, maxWidth-1, "") + "…"
}

// pad right-pads a string with spaces to the given visual width.
func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
