package domain

import (
	"strings"
	"unicode/utf8"
)

// SlugFallback is returned by Slugify when the input contains no usable runes.
const SlugFallback = "topic"

// TitleMaxLength bounds stored topic titles.
const TitleMaxLength = 255

// Slugify normalizes text into a filesystem/URL-safe token: lowercase ASCII
// alphanumerics joined by single hyphens, leading/trailing hyphens stripped.
// Empty input yields SlugFallback. Idempotent: Slugify(Slugify(s)) == Slugify(s).
func Slugify(text string) string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	pendingHyphen := false
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}

	if b.Len() == 0 {
		return SlugFallback
	}
	return b.String()
}

// NormalizeTitle trims a topic title and truncates it to TitleMaxLength
// characters. Truncation counts runes, not bytes, so a multi-byte title is
// never cut mid-rune into invalid UTF-8. An empty result means the title had
// no usable content.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > TitleMaxLength {
		runes := []rune(title)
		title = string(runes[:TitleMaxLength])
	}
	return title
}
