// Package text provides the plain-text transforms used when a rich message
// has to be degraded before resending.
package text

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	// Both are safe for concurrent use once built.
	strictPolicy = bluemonday.StrictPolicy()
	markdown     = goldmark.New()

	lineBreakTagsRegex    = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockTagsRegex        = regexp.MustCompile(`(?i)</?(p|div|pre|blockquote|h[1-6]|li|ul|ol)>`)
	multipleNewlinesRegex = regexp.MustCompile(`\n{3,}`)

	invisibleReplacer = strings.NewReplacer(
		"\u200D", "", // zero width joiner glues emoji sequences
		"\uFE0F", "", "\uFE0E", "", // variation selectors
		"\u2060", "", "\uFEFF", "",
	)
)

// isDecoration reports whether r is a pictograph or one of its modifiers.
// Letters, digits, punctuation and bullets are kept.
func isDecoration(r rune) bool {
	switch {
	case unicode.Is(unicode.So, r):
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r >= 0xE0020 && r <= 0xE007F: // tag sequences
		return true
	}
	return false
}

func normalizeLineWhitespace(line string) string {
	var b strings.Builder

	var space bool

	for _, r := range line {
		switch {
		case unicode.IsSpace(r) || r == '\u00A0':
			if !space {
				b.WriteRune(' ')

				space = true
			}
		default:
			b.WriteRune(r)

			space = false
		}
	}

	return strings.TrimSpace(b.String())
}

func normalizeLines(s string) string {
	parts := strings.Split(s, "\n")
	for i := range parts {
		parts[i] = normalizeLineWhitespace(parts[i])
	}

	s = strings.Join(parts, "\n")
	s = multipleNewlinesRegex.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// StripDecorations removes emoji and other pictographs and tidies the
// whitespace they leave behind.
func StripDecorations(input string) string {
	if input == "" {
		return ""
	}

	s := invisibleReplacer.Replace(input)
	s = strings.Map(func(r rune) rune {
		if isDecoration(r) {
			return -1
		}
		return r
	}, s)

	return normalizeLines(s)
}

// StripHTML turns Telegram HTML markup into plain text.
func StripHTML(input string) string {
	if input == "" {
		return ""
	}

	s := lineBreakTagsRegex.ReplaceAllString(input, "\n")
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	return normalizeLines(s)
}

// StripMarkdown renders Telegram Markdown to HTML and strips it. Input that
// fails to render is returned with whitespace tidied.
func StripMarkdown(input string) string {
	if input == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(input), &buf); err != nil {
		return normalizeLines(input)
	}

	return StripHTML(blockTagsRegex.ReplaceAllString(buf.String(), "\n"))
}
