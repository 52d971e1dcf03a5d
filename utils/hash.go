// utils/hash.go - Answer normalization and hashing
package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// NormalizeAnswer trims surrounding whitespace and case-folds, so
// " Bitcoin " and "bitcoin" hash identically.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// HashAnswer returns the hex-encoded SHA-256 of the normalized answer.
// The same function seeds the catalog, so verification is a direct
// comparison.
func HashAnswer(answer string) string {
	sum := sha256.Sum256([]byte(NormalizeAnswer(answer)))
	return hex.EncodeToString(sum[:])
}

// VerifyAnswer checks a plaintext answer against a stored hash.
func VerifyAnswer(answer, hash string) bool {
	computed := HashAnswer(answer)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(hash))) == 1
}
