package logging

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPreviewLength is the maximum number of runes of model output to log
	MaxPreviewLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match bearer tokens pasted into prompts or echoed back
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// Pattern to match provider API keys (sk-..., sk-ant-...)
	secretKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9-_]{16,}`)

	// Pattern to match key=value style credentials
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|password|secret)=[^;&\s]+`)

	// Runs of whitespace collapse to a single space in previews
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Redact removes credentials from text before it is logged.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	sanitized := bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	sanitized = secretKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return sanitized
}

// Preview returns a single-line, redacted and truncated form of a model
// response suitable for a log field.
func Preview(response string) string {
	flat := strings.TrimSpace(whitespacePattern.ReplaceAllString(response, " "))
	return TruncateString(Redact(flat), MaxPreviewLength)
}

// TruncateString truncates a string to maxLen runes and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
