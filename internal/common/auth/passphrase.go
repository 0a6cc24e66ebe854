// internal/common/auth/passphrase.go
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"scribe-api/internal/common/errors"
)

// MinPassphraseLength is the shortest accepted result encryption passphrase.
const MinPassphraseLength = 8

// HashPassphrase returns the bcrypt hash of a passphrase.
func HashPassphrase(passphrase string) (string, error) {
	if len(passphrase) < MinPassphraseLength {
		return "", errors.NewValidationError(
			"passphrase too short",
			"a passphrase must be at least 8 characters long")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.NewInternalError("failed to hash passphrase", err)
	}
	return string(hash), nil
}

// VerifyPassphrase reports whether a passphrase matches its stored hash.
func VerifyPassphrase(hash, passphrase string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)) == nil
}
