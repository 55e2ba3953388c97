package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{name: "string value", input: json.RawMessage(`"Revenue"`), want: "Revenue"},
		{name: "integer value", input: json.RawMessage(`2024`), want: "2024"},
		{name: "float value", input: json.RawMessage(`0.85`), want: "0.85"},
		{name: "boolean", input: json.RawMessage(`true`), want: "true"},
		{name: "null value", input: json.RawMessage(`null`), want: ""},
		{name: "nil raw message", input: nil, want: ""},
		{name: "object falls back to raw string", input: json.RawMessage(`{"column":"Region"}`), want: `{"column":"Region"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestFlexibleFloatValue(t *testing.T) {
	tests := []struct {
		name   string
		input  json.RawMessage
		want   float64
		wantOK bool
	}{
		{name: "number", input: json.RawMessage(`0.75`), want: 0.75, wantOK: true},
		{name: "numeric string", input: json.RawMessage(`" 12 "`), want: 12, wantOK: true},
		{name: "percent string", input: json.RawMessage(`"85%"`), want: 0.85, wantOK: true},
		{name: "word", input: json.RawMessage(`"high"`), wantOK: false},
		{name: "null", input: json.RawMessage(`null`), wantOK: false},
		{name: "array", input: json.RawMessage(`[1]`), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FlexibleFloatValue(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FlexibleFloatValue(%s) ok = %v, want %v", string(tt.input), ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FlexibleFloatValue(%s) = %v, want %v", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestFlexibleConfidenceValue(t *testing.T) {
	tests := map[string]float64{
		`0.9`:      0.9,
		`"80%"`:    0.8,
		`"High"`:   0.9,
		`"medium"`: 0.6,
		`"low"`:    0.3,
		`"maybe"`:  0,
		`null`:     0,
	}
	for input, want := range tests {
		if got := FlexibleConfidenceValue(json.RawMessage(input)); got != want {
			t.Errorf("FlexibleConfidenceValue(%s) = %v, want %v", input, got, want)
		}
	}
}

func TestFlexibleStringList(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  []string
	}{
		{name: "array", input: json.RawMessage(`["Region", " Revenue ", ""]`), want: []string{"Region", "Revenue"}},
		{name: "mixed scalars", input: json.RawMessage(`["Year", 2024]`), want: []string{"Year", "2024"}},
		{name: "comma separated string", input: json.RawMessage(`"Region, Revenue,,Units"`), want: []string{"Region", "Revenue", "Units"}},
		{name: "single string", input: json.RawMessage(`"Region"`), want: []string{"Region"}},
		{name: "null", input: json.RawMessage(`null`), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("FlexibleStringList(%s) = %q, want %q", string(tt.input), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FlexibleStringList(%s)[%d] = %q, want %q", string(tt.input), i, got[i], tt.want[i])
				}
			}
		})
	}
}
