package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Passwords are run through SHA-256 before bcrypt. bcrypt silently ignores
// input past 72 bytes, so without this step two long passwords sharing a
// 72-byte prefix would verify against each other's hashes. The digest is
// hex-encoded (64 bytes) to keep the bcrypt input free of NUL bytes.

// preparePassword maps a password of any length to a fixed-length byte
// sequence suitable as bcrypt input. Deterministic: the same password
// always produces the same prepared bytes.
func preparePassword(password string) []byte {
	digest := sha256.Sum256([]byte(password))
	prepared := make([]byte, hex.EncodedLen(len(digest)))
	hex.Encode(prepared, digest[:])
	return prepared
}

// HashPassword creates a salted bcrypt hash of the prepared password. The
// returned string is bcrypt's self-describing format (cost and salt
// embedded), suitable for direct storage and later verification.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(preparePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash.
// Returns false on any mismatch, including a malformed stored hash --
// callers treat every failure identically. The underlying comparison is
// constant-time with respect to the hash.
func VerifyPassword(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), preparePassword(password)) == nil
}
