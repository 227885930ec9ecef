// Package auth provides password hashing and bearer-token issuing for
// the API. Passwords are stored as bcrypt hashes; sessions are
// stateless HS256 JWTs carrying the username.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// ErrWeakPassword rejects passwords below the minimum length.
var ErrWeakPassword = errors.New("password must be at least 8 characters long")

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a plain text password against a stored hash.
func VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
