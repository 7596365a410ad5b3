// Package etag normalizes and computes registry change-tokens.
package etag

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize strips a weak-validator prefix and surrounding quotes from an
// HTTP entity tag. It returns "" when nothing remains.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "W/") || strings.HasPrefix(s, "w/") {
		s = s[2:]
	}
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// Quote renders a bare token as a strong entity tag for a response header.
func Quote(token string) string {
	if token == "" {
		return ""
	}
	return `"` + token + `"`
}

// Compute returns the change-token for a stored document body.
func Compute(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Match reports whether an If-None-Match / If-Match header value names token.
// "*" matches any non-empty token.
func Match(header, token string) bool {
	if token == "" {
		return false
	}
	for _, part := range strings.Split(header, ",") {
		p := strings.TrimSpace(part)
		if p == "*" || Normalize(p) == token {
			return true
		}
	}
	return false
}
