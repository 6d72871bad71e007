package gateway

import "strings"

// IsThrottleError reports whether an upstream error message points at quota
// or rate limiting, which is what triggers a backoff.
func IsThrottleError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") ||
		strings.Contains(lower, "429") ||
		strings.Contains(lower, "rate")
}
