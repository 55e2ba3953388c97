package matcher

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ordinal int
		want    string
	}{
		{"simple", "Revenue", 1, "revenue"},
		{"spaces", "Order Date", 1, "order_date"},
		{"punctuation run", "Unit -- Price ($)", 1, "unit_price"},
		{"leading and trailing separators", "__total__", 1, "total"},
		{"diacritics", "Café Crème", 1, "cafe_creme"},
		{"non latin script kept", "Straße 名前", 1, "straße_名前"},
		{"empty falls back to ordinal", "", 7, "column_7"},
		{"only punctuation falls back", "?!-", 3, "column_3"},
		{"leading digit guarded", "2024 Sales", 1, "c_2024_sales"},
		{"all digits guarded", "123", 1, "c_123"},
		{"sql keyword", "Order", 1, "order_col"},
		{"go keyword", "Type", 1, "type_col"},
		{"keyword inside name untouched", "Order Type", 1, "order_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input, tt.ordinal))
		})
	}
}

func TestNormalize_Truncates(t *testing.T) {
	long := strings.Repeat("abc ", 40)

	got := Normalize(long, 1)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxNormalizedLength)
	assert.False(t, strings.HasSuffix(got, Separator))
	assert.True(t, strings.HasPrefix(got, "abc_abc"))
}

func TestNormalize_Deterministic(t *testing.T) {
	for _, input := range []string{"Café", "", "Order", "  x  y  "} {
		assert.Equal(t, Normalize(input, 2), Normalize(input, 2))
	}
}

func TestNormalize_NeverEmpty(t *testing.T) {
	for _, input := range []string{"", " ", "́", "---", "💰"} {
		assert.NotEmpty(t, Normalize(input, 1), "%q", input)
	}
}
