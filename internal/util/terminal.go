package util

import (
	"regexp"

	"github.com/charmbracelet/x/ansi"
)

var urlRe = regexp.MustCompile(`https?://[^\s()<>]+[^\s()<>.,;:!?'"]`)

// MakeHyperlink wraps displayText in an OSC 8 terminal hyperlink to url.
func MakeHyperlink(url, displayText string) string {
	return ansi.SetHyperlink(url) + displayText + ansi.ResetHyperlink()
}

// TruncateText truncates s to maxLen cells, appending "…" if truncated.
// maxLen <= 0 leaves s unchanged.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	return ansi.Truncate(s, maxLen, "…")
}

// Linkify turns bare URLs in plain text into clickable hyperlinks whose
// visible text is truncated to width cells.
func Linkify(s string, width int) string {
	return urlRe.ReplaceAllStringFunc(s, func(u string) string {
		return MakeHyperlink(u, TruncateText(u, width))
	})
}

// FirstURL returns the first URL in s, or "" when there is none.
func FirstURL(s string) string {
	return urlRe.FindString(s)
}
