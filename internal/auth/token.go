package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the number of random bytes in an activation or reset token.
// 32 bytes = 256 bits of entropy, base64url-encoded to 43 characters.
const tokenBytes = 32

// GenerateToken creates a cryptographically random, URL-safe opaque token.
// Every call produces an independent value; tokens carry no structure and
// no state is kept between calls. URL-safe encoding because tokens travel
// inside emailed links.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
