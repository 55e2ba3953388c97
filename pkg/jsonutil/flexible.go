package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleFloatValue converts a json.RawMessage to a float64. Numbers, numeric
// strings and percent strings ("85%") are accepted. The second return value is
// false when nothing numeric could be read.
func FlexibleFloatValue(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal, true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return 0, false
	}
	strVal = strings.TrimSpace(strVal)
	if trimmed, isPercent := strings.CutSuffix(strVal, "%"); isPercent {
		n, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil {
			return 0, false
		}
		return n / 100, true
	}
	n, err := strconv.ParseFloat(strVal, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FlexibleConfidenceValue reads a model-declared confidence. On top of what
// FlexibleFloatValue accepts it maps the words high, medium and low onto
// 0.9, 0.6 and 0.3. Returns 0 when nothing usable is present.
func FlexibleConfidenceValue(raw json.RawMessage) float64 {
	if n, ok := FlexibleFloatValue(raw); ok {
		return n
	}
	switch strings.ToLower(strings.TrimSpace(FlexibleStringValue(raw))) {
	case "high", "very high":
		return 0.9
	case "medium", "moderate":
		return 0.6
	case "low":
		return 0.3
	}
	return 0
}

// FlexibleStringList converts a json.RawMessage to a list of strings. Accepts a
// JSON array of scalars, or a single string which is split on commas.
func FlexibleStringList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(FlexibleStringValue(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	return SplitList(FlexibleStringValue(raw))
}

// SplitList splits a comma separated string into trimmed, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
