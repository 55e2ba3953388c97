package services

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// metricWords are name tokens that mark a column as a business measure.
// Stored in singular form; name tokens are singularized before lookup.
var metricWords = map[string]bool{
	"amount":     true,
	"balance":    true,
	"budget":     true,
	"cost":       true,
	"count":      true,
	"discount":   true,
	"duration":   true,
	"earning":    true,
	"expense":    true,
	"fee":        true,
	"gmv":        true,
	"income":     true,
	"margin":     true,
	"price":      true,
	"profit":     true,
	"quantity":   true,
	"qty":        true,
	"rate":       true,
	"revenue":    true,
	"sale":       true,
	"score":      true,
	"spend":      true,
	"subtotal":   true,
	"tax":        true,
	"total":      true,
	"unit":       true,
	"value":      true,
	"volume":     true,
	"weight":     true,
	"percentage": true,
	"ratio":      true,
}

// nameTokens splits a column name into lowercase words. Separators and
// lower-to-upper case transitions both start a new word, so "totalRevenue",
// "total_revenue" and "Total Revenue" tokenize the same.
func nameTokens(name string) []string {
	var tokens []string
	var b strings.Builder
	var prev rune
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, strings.ToLower(b.String()))
			b.Reset()
		}
	}
	for _, r := range name {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	flush()
	return tokens
}

// isMetricName reports whether any word of the column name is a measure word.
func isMetricName(name string) bool {
	for _, token := range nameTokens(name) {
		if metricWords[token] || metricWords[inflection.Singular(token)] {
			return true
		}
	}
	return false
}
