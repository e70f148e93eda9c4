package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// NewOpaqueToken returns a random bearer secret. Only its hash is stored;
// a lost token is regenerated, never recovered.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the storage form of an opaque token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyTokenHash compares a presented token against a stored hash in
// constant time.
func VerifyTokenHash(storedHash, token string) bool {
	actual := HashToken(token)
	if len(storedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(actual)) == 1
}
