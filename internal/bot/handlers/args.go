package handlers

import "strings"

// commandArgs returns the text after the leading /command (or
// /command@botname) token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	idx := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' })
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}
