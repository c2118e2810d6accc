// Package textfmt normalizes user-supplied text: pasted HTML becomes
// Markdown and display names become file-system safe.
package textfmt

import (
	"regexp"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/unicode/norm"
)

// Format names the markup of submitted base text.
type Format string

// Supported formats.
const (
	FormatPlain Format = "plain"
	FormatHTML  Format = "html"
)

var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|u|strong|em|a|ul|ol|li|h[1-6]|blockquote|pre|code|table)[\s>/]`)

// ContainsHTML reports whether s looks like HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Normalize converts text in the given format to the plain/Markdown form
// stored in chapters. FormatHTML input without recognizable tags, and any
// input that fails to convert, is returned unchanged.
func Normalize(text string, format Format) string {
	if format != FormatHTML || !ContainsHTML(text) {
		return text
	}

	markdown, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(markdown)
}

// SanitizeName makes a display name usable as a file or folder name.
// Accents are folded ("Ortográfico" becomes "Ortografico") and every other
// character outside [A-Za-z0-9] is replaced by "_", one for one. Archives
// made by the browser app replaced accented letters too ("Ortogr_fico"), so
// their entry names differ from ours for accented titles.
func SanitizeName(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
