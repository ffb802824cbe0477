package blogservice

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultExcerptLength is the cap applied when deriving an excerpt from post
// content.
const DefaultExcerptLength = 160

var (
	// slugStripRX matches everything except word characters, whitespace, and hyphens
	slugStripRX = regexp.MustCompile(`[^\w\s-]`)
	// slugSeparatorRX matches runs of whitespace, underscores, and hyphens
	slugSeparatorRX = regexp.MustCompile(`[\s_-]+`)

	stripPolicy = bluemonday.StrictPolicy()
)

// Slugify converts a title to a URL-friendly slug: accents folded, lowercase,
// separator runs collapsed to single hyphens, no leading or trailing hyphen.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ := transform.String(t, title)

	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripRX.ReplaceAllString(s, "")
	s = slugSeparatorRX.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// ExcerptFromHTML strips the markup from content and truncates the plain text
// to maxLength, cutting at the last space and appending "...". Content that
// already fits is returned unchanged.
func ExcerptFromHTML(content string, maxLength int) string {
	text := strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(content)))
	if len(text) <= maxLength {
		return text
	}

	cut := strings.LastIndex(text[:maxLength], " ")
	if cut == -1 {
		return text[:maxLength] + "..."
	}

	return strings.TrimRight(text[:cut], " ") + "..."
}
