package matcher

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxNormalizedLength is the maximum rune length of a normalized name.
	MaxNormalizedLength = 64

	// Separator replaces every run of non-alphanumeric runes.
	Separator = "_"

	// DigitGuard prefixes normalized names that start with a digit.
	DigitGuard = "c_"
)

// Normalize converts a column name into a canonical identifier token.
// It is deterministic and total: every input, including the empty string,
// yields a non-empty token. ordinal is the 1-based column position used for
// the fallback name when nothing alphanumeric survives.
func Normalize(name string, ordinal int) string {
	token, _ := normalize(name, ordinal)
	return token
}

// normalize also reports whether the token is the positional fallback.
func normalize(name string, ordinal int) (string, bool) {
	// The chain carries state, so it is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteString(Separator)
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	token := b.String()
	if token == "" {
		return fmt.Sprintf("column_%d", ordinal), true
	}

	if first, _ := utf8.DecodeRuneInString(token); unicode.IsDigit(first) {
		token = DigitGuard + token
	}

	token = truncateRunes(token, MaxNormalizedLength)
	token = strings.TrimRight(token, Separator)

	if IsReservedKeyword(token) {
		token += KeywordSuffix
	}
	return token, false
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// foldCase lowercases name and collapses whitespace. This is the tier 2 key.
func foldCase(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
