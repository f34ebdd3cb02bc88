package rendering

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// ToASCII decomposes text and drops every non-ASCII rune, so "Café – ok"
// becomes "Cafe  ok".
func ToASCII(text string) string {
	out, _, err := transform.String(asciiFold, text)
	if err != nil {
		return ""
	}
	return out
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", "&lt;",
	">", "&gt;",
	"|", `\|`,
)

// EscapeMarkdown escapes characters that would change the meaning of user
// text embedded in a markdown document.
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}
	return markdownEscaper.Replace(text)
}
