package helpers

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsBcryptHash reports whether stored looks like a bcrypt hash ($2a$, $2b$, $2y$).
func IsBcryptHash(stored string) bool {
	return len(stored) == 60 && strings.HasPrefix(stored, "$2")
}
