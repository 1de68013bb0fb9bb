package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and verifies salted bcrypt digests. The cost is
// the adaptive work factor; raising it makes brute force proportionally
// more expensive.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost. Costs
// outside bcrypt's supported range fall back to the library default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash generates a salted digest of the plaintext. The plaintext is never
// logged or persisted.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the plaintext matches the stored digest. bcrypt's
// comparison is constant-time with respect to content.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
