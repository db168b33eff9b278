package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("expected password to verify against its own hash")
	}
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if VerifyPassword("incorrect horse battery staple", hash) {
		t.Error("expected wrong password to fail verification")
	}
	if VerifyPassword("", hash) {
		t.Error("expected empty password to fail verification")
	}
}

// Passwords well past bcrypt's 72-byte input limit must still round-trip,
// because hashing operates on the fixed-size SHA-256 digest of the password
// rather than the raw bytes.
func TestHashPassword_LongPassword(t *testing.T) {
	long := strings.Repeat("a", 250)

	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword on 250-char password: %v", err)
	}
	if !VerifyPassword(long, hash) {
		t.Error("expected long password to verify against its own hash")
	}

	// A password differing only past byte 72 must still be rejected.
	other := long[:len(long)-1] + "b"
	if VerifyPassword(other, hash) {
		t.Error("expected long password differing in its tail to fail verification")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Error("expected two hashes of the same password to differ")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, stored := range []string{"", "not-a-bcrypt-hash", "$2a$10$tooshort"} {
		if VerifyPassword("anything", stored) {
			t.Errorf("expected verification to fail for stored value %q", stored)
		}
	}
}
