package compare

import (
	"regexp"
	"strings"
)

var (
	reUUID  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	reTime  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)
	reHex   = regexp.MustCompile(`(?i)\b(?:0x)?[0-9a-f]{8,}\b`)
	reDigit = regexp.MustCompile(`\d+`)
)

// NormalizeMessage replaces UUIDs, timestamps, hex identifiers of at least
// eight characters and digit runs with fixed placeholders. Patterns run
// broadest first so digit runs never split a UUID or timestamp.
func NormalizeMessage(msg string) string {
	msg = reUUID.ReplaceAllString(msg, "<uuid>")
	msg = reTime.ReplaceAllString(msg, "<time>")
	msg = reHex.ReplaceAllStringFunc(msg, func(s string) string {
		if !strings.ContainsAny(strings.TrimPrefix(strings.ToLower(s), "0x"), "abcdef") {
			return s
		}
		return "<hex>"
	})
	return reDigit.ReplaceAllString(msg, "<n>")
}
