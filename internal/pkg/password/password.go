// Package password wraps bcrypt for credential hashing and verification.
package password

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the account does not exist, so a miss
// costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		panic("password: generate dummy hash: " + err.Error())
	}
	return h
})

// Hash returns the bcrypt hash of plaintext at the default cost.
func Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether plaintext matches hash. Empty input never matches.
func Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Equalize burns one bcrypt comparison. Call it on the unknown-user path.
func Equalize(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plaintext))
}
