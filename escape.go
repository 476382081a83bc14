package glubview

import "strings"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#039;",
	"<", "&lt;",
	">", "&gt;",
)

// Esc escapes text for safe use in HTML element content and quoted
// attributes. Invalid UTF-8 sequences are replaced by U+FFFD.
func Esc(text string) string {
	return escaper.Replace(strings.ToValidUTF8(text, "\uFFFD"))
}
