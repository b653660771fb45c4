package doc

import (
	"regexp"
	"strings"
)

var hrefAttr = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// MalformedHref reports whether a link payload carries raw markup instead
// of a bare URL.
func MalformedHref(href string) bool {
	return strings.Contains(href, "<")
}

// ExtractBareURL recovers the URL from a payload that was saved with markup
// around it, in practice a whole anchor tag pasted into the href field. It
// is a strict extraction: the result is always a substring of the input
// after tag stripping and entity decoding, never an invented URL.
func ExtractBareURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "<") {
		return DecodeEntities(trimmed)
	}
	if m := hrefAttr.FindStringSubmatch(trimmed); m != nil {
		return DecodeEntities(m[1])
	}
	return DecodeEntities(strings.TrimSpace(tagPattern.ReplaceAllString(trimmed, "")))
}

// DecodeEntities decodes the five entities that show up in stored hrefs.
// Replacements run in order so double-encoded values decode fully.
func DecodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	return s
}
