package auth

import (
	"strings"
	"testing"
)

// =========================================================================
// HELPER
// =========================================================================

// newTestPasswordService returns a PasswordService with bcrypt cost 4.
// Cost 4 is the minimum allowed by the bcrypt library. This makes tests
// run in milliseconds instead of ~250ms each.
func newTestPasswordService() *PasswordService {
	return NewPasswordService(4)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_ReturnsNonEmptyHash(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("my-secret-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" {
		t.Error("Hash() returned empty string")
	}
}

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// bcrypt hashes start with $2a$ (or $2b$) followed by the cost
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() = %q, doesn't look like a bcrypt hash", hash)
	}
}

func TestHash_NeverEqualsPlaintext(t *testing.T) {
	ps := newTestPasswordService()

	plaintext := "secret1"
	hash, err := ps.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == plaintext {
		t.Error("Hash() stored the plaintext unchanged")
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt generates a random salt each time, so hashing the same
	// password twice must produce different outputs — and both must
	// still verify against the original plaintext.
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes — salt is not random")
	}

	if !ps.Verify(hash1, "same-password") {
		t.Error("Verify() failed for first hash")
	}
	if !ps.Verify(hash2, "same-password") {
		t.Error("Verify() failed for second hash")
	}
}

func TestHash_TooLongPassword(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt truncates at 72 bytes; we reject instead
	long := strings.Repeat("x", 73)
	_, err := ps.Hash(long)
	if err == nil {
		t.Fatal("Hash() should reject passwords longer than 72 bytes")
	}
}

func TestHash_72BytesExactlyOK(t *testing.T) {
	ps := newTestPasswordService()

	exact := strings.Repeat("x", 72)
	if _, err := ps.Hash(exact); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got error: %v", err)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("correct-horse-battery-staple")

	if !ps.Verify(hash, "correct-horse-battery-staple") {
		t.Error("Verify() = false for the correct password")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("correct-password")

	if ps.Verify(hash, "wrong-password") {
		t.Error("Verify() = true for a wrong password")
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	// A malformed digest is a non-match, never a panic. This covers the
	// OAuth-only account case too: those rows have an empty hash and a
	// password login against them must simply fail.
	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"not a bcrypt hash", "plaintext-in-the-db"},
		{"truncated bcrypt hash", "$2a$04$tooShort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ps.Verify(tt.hash, "any-password") {
				t.Errorf("Verify(%q, ...) = true, want false", tt.hash)
			}
		})
	}
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewPasswordService_OutOfRangeCost(t *testing.T) {
	// Costs outside bcrypt's range fall back to the default rather than
	// producing a service that errors on every Hash call.
	for _, cost := range []int{-1, 0, 99} {
		ps := NewPasswordService(cost)
		if ps.cost != defaultCost {
			t.Errorf("NewPasswordService(%d) cost = %d, want default %d", cost, ps.cost, defaultCost)
		}
	}
}
