// Package textindex builds the tag/word/ngram association index over photo
// text. Normalization, word indexing and n-gram construction are independent
// pure functions over a photo's text surface; each is idempotent and safe to
// run in any order.
package textindex

import (
	"regexp"
	"strings"
	"unicode"
)

var markupPattern = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes HTML-like angle-bracket fragments.
func StripMarkup(s string) string {
	return markupPattern.ReplaceAllString(s, " ")
}

// Clean strips markup, drops every rune that is not a letter or a space,
// lowercases the remainder and collapses whitespace runs to single spaces.
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	s = StripMarkup(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CleanToken cleans a single token: markup and non-letter characters are
// stripped and the remainder lowercased. Unlike Clean, no spaces survive.
func CleanToken(s string) string {
	s = StripMarkup(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
