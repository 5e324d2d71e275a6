package password

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and verifies salted bcrypt digests. The cost factor is
// fixed at construction; stored digests embed their own cost and salt, so
// raising the cost later never invalidates existing hashes.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash generates a salted digest of plaintext. Each call salts independently,
// so hashing the same password twice yields different digests.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the stored digest. A malformed
// digest is a server-side data problem: it is logged here and reported to the
// caller as a plain mismatch, so clients cannot distinguish corrupt stored
// credentials from a wrong password.
func (h *Hasher) Verify(plaintext, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		slog.Error("malformed password digest", "err", err)
	}
	return false
}
