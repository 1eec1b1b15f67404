package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// NewCSRFToken returns a random 128-bit token, hex encoded. The token is set
// as a cookie and echoed back in the X-CSRF-Token header by the client.
func NewCSRFToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidCSRF reports whether the header token matches the cookie token.
// Both must be present; the comparison is constant time.
func ValidCSRF(cookie, header string) bool {
	if cookie == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}
