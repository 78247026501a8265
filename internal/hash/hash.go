package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor the account records were created with.
const DefaultCost = 10

// HashPassword hashes with the given bcrypt cost. A cost outside bcrypt's
// supported range falls back to DefaultCost, so callers may pass zero.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CheckPassword reports whether password matches the stored digest.
// A malformed digest counts as a mismatch, never an error.
func CheckPassword(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// TokenDigest produces the stored form of a refresh token. Refresh tokens are
// high-entropy signed strings, so an unsalted digest is sufficient and keeps
// the column value deterministic for the conditional rotation update.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func CheckTokenDigest(digest, token string) bool {
	computed := TokenDigest(token)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(computed)) == 1
}
