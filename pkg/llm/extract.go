// Package llm decodes chart recommendations out of generative model responses.
// Responses are free text: JSON may be wrapped in reasoning tags, markdown
// fences or prose, and fields use whatever names the model chose.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
)

// thinkTagPattern matches a leading <think>...</think> block.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractJSON returns the first valid JSON object or array in a model
// response. Leading <think> blocks, code fences and surrounding prose are
// ignored.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	// Whichever structure opens first is the payload; an array of objects
	// must not be mistaken for its first element.
	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if payload, ok := balancedJSON(cleaned[objStart:], '{', '}'); ok && json.Valid([]byte(payload)) {
			return payload, nil
		}
	}
	if arrStart >= 0 {
		if payload, ok := balancedJSON(cleaned[arrStart:], '[', ']'); ok && json.Valid([]byte(payload)) {
			return payload, nil
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("%w: no valid JSON in response", apperrors.ErrNoRecommendations)
}

// balancedJSON returns the prefix of s up to the bracket that closes s[0].
// Brackets inside string literals are skipped.
func balancedJSON(s string, open, close byte) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
