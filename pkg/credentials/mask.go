package credentials

import "strings"

// Mask hides all but the first 6 and last 4 characters of a secret so it can
// appear in diagnostics. Secrets too short to keep anything meaningful are
// masked entirely.
func Mask(secret string) string {
	if len(secret) <= 10 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:6] + strings.Repeat("*", len(secret)-10) + secret[len(secret)-4:]
}
