package value

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces the five HTML-significant characters; all other bytes
// pass through unchanged.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

// EscapeValue renders v for HTML output: HtmlSafeString passes through
// unescaped, everything else is stringified and escaped.
func EscapeValue(v Value) string {
	if s, ok := v.(*Str); ok && s.Safe {
		return s.S
	}
	return EscapeHTML(v.ToString())
}
