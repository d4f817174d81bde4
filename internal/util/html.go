package util

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	// Match any HTML tag
	tagRe = regexp.MustCompile(`<[^>]*>`)

	// Match <a href="..."> to extract URLs
	anchorRe = regexp.MustCompile(`(?i)<a\s[^>]*href\s*=\s*["']([^"']*)["'][^>]*>`)

	// Match closing </a>
	anchorCloseRe = regexp.MustCompile(`(?i)</a\s*>`)

	// Collapse runs of blank lines into at most one blank line
	blankLinesRe = regexp.MustCompile(`\n{3,}`)

	// Collapse runs of spaces (not newlines) into one
	spacesRe = regexp.MustCompile(`[^\S\n]+`)

	brRe = regexp.MustCompile(`(?i)<br\s*/?\s*>`)

	// Block tags that produce paragraph breaks
	blockCloseRe = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|blockquote|pre|table|tr)\s*>`)
	blockOpenRe  = regexp.MustCompile(`(?i)<(?:p|div|h[1-6]|blockquote|pre|table|tr)(?:\s[^>]*)?\s*>`)

	liOpenRe   = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?\s*>`)
	liCloseRe  = regexp.MustCompile(`(?i)</li\s*>`)
	listWrapRe = regexp.MustCompile(`(?i)</?(?:ul|ol)(?:\s[^>]*)?\s*>`)

	// Remote descriptions are plain text unless they carry a tag
	looksHTMLRe = regexp.MustCompile(`(?i)</?(?:a|p|div|br|span|b|i|ul|ol|li|html|body)\b`)
)

// IsHTML reports whether s looks like an HTML fragment.
func IsHTML(s string) bool {
	return looksHTMLRe.MatchString(s)
}

// HTMLToText converts an HTML description (Google and Outlook event bodies)
// into plain text suitable for storage. Links become "text (url)", or just
// the url when the text repeats it. Non-HTML input is returned trimmed.
func HTMLToText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !IsHTML(s) {
		return s
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = brRe.ReplaceAllString(s, "\n")
	s = blockCloseRe.ReplaceAllString(s, "\n\n")
	s = blockOpenRe.ReplaceAllString(s, "\n")

	// Wrappers add no lines of their own; <li> carries the structure
	s = listWrapRe.ReplaceAllString(s, "")
	s = liOpenRe.ReplaceAllString(s, "\n  • ")
	s = liCloseRe.ReplaceAllString(s, "")

	s = convertLinks(s)
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spacesRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.TrimLeft(line, " "), "• ") {
			lines[i] = "  • " + strings.TrimPrefix(trimmed, "• ")
		} else {
			lines[i] = trimmed
		}
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// convertLinks replaces <a href="url">text</a> with plain "text (url)".
// Google redirect URLs are unwrapped to the real target.
func convertLinks(s string) string {
	for {
		aLoc := anchorRe.FindStringSubmatchIndex(s)
		if aLoc == nil {
			break
		}

		href := unwrapRedirect(html.UnescapeString(s[aLoc[2]:aLoc[3]]))
		afterOpen := s[aLoc[1]:]

		closeLoc := anchorCloseRe.FindStringIndex(afterOpen)
		if closeLoc == nil {
			// Malformed: drop the opening tag
			s = s[:aLoc[0]] + s[aLoc[1]:]
			continue
		}

		text := strings.TrimSpace(tagRe.ReplaceAllString(afterOpen[:closeLoc[0]], ""))
		var replacement string
		switch {
		case href == "":
			replacement = text
		case text == "" || html.UnescapeString(text) == href:
			replacement = href
		default:
			replacement = text + " (" + href + ")"
		}

		s = s[:aLoc[0]] + replacement + afterOpen[closeLoc[1]:]
	}
	return s
}

// unwrapRedirect extracts the real URL from Google redirect wrappers
// like https://www.google.com/url?q=REAL_URL&...
func unwrapRedirect(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if u.Host == "www.google.com" && u.Path == "/url" {
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	}

	return rawURL
}
