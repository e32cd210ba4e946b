package worker

import "regexp"

// RedactedSentinel replaces every telephone-number-shaped match.
const RedactedSentinel = "[REDACTED]"

// Longest patterns run first: the seven-digit rule would otherwise consume
// the tail of a ten-digit number and leave stray digits behind.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\d{3}\)\s*\d{3}-\d{4}`), // (555) 123-4567
	regexp.MustCompile(`\d{3}-\d{3}-\d{4}`),       // 555-123-4567
	regexp.MustCompile(`\d{3}-\d{4}`),             // 555-0199
}

// Redact replaces telephone-number-shaped substrings with the sentinel. It
// is total and idempotent: the sentinel contains no digits, so redacting
// already-redacted text changes nothing.
func Redact(text string) string {
	result := text
	for _, p := range phonePatterns {
		result = p.ReplaceAllString(result, RedactedSentinel)
	}
	return result
}
