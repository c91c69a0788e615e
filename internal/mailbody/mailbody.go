// Package mailbody turns original email bodies into terminal-safe plain text.
package mailbody

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy drops every element and attribute.
	strictPolicy = bluemonday.StrictPolicy()

	blockBreak = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/tr|/h[1-6]|/blockquote)\s*>`)
	listItem   = regexp.MustCompile(`(?i)<\s*li(\s[^>]*)?>`)
	styleBlock = regexp.MustCompile(`(?is)<\s*(style|script|head)[^>]*>.*?<\s*/\s*(style|script|head)\s*>`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// PlainText strips markup from body, keeping paragraph and list structure as
// line breaks. Control characters other than newline and tab are removed so
// the result cannot drive the terminal.
func PlainText(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	s := strings.ReplaceAll(body, "\r\n", "\n")
	if looksLikeHTML(s) {
		s = styleBlock.ReplaceAllString(s, "")
		s = listItem.ReplaceAllString(s, "\n- ")
		s = blockBreak.ReplaceAllString(s, "\n")
		s = strictPolicy.Sanitize(s)
		s = html.UnescapeString(s)
	}
	s = stripControl(s)

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t ")
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			return -1
		}
		return r
	}, s)
}
