package util

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used unless SetBcryptCost lowers it (tests do).
const DefaultBcryptCost = 12

var bcryptCost = DefaultBcryptCost

func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	bcryptCost = cost
}

// HashPassword hashes a plain text password. Passwords longer than 72 bytes
// are rejected by bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
