// Package auth provides password hashing and session token generation.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"life-tracker/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

const (
	// sessionTokenBytes is the amount of randomness in a session token.
	sessionTokenBytes = 32

	// MaxUsernameLen is counted in characters.
	MaxUsernameLen = 64
	// MaxPasswordBytes is bcrypt's input limit; longer passwords are rejected
	// rather than silently truncated.
	MaxPasswordBytes = 72
)

// ValidateCredentials trims username and checks both values against the
// account limits, returning the trimmed username.
func ValidateCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", apperr.Validation("Username and password are required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return "", apperr.Validation(fmt.Sprintf("Username is too long (max %d characters)", MaxUsernameLen))
	}
	if len(password) > MaxPasswordBytes {
		return "", apperr.Validation(fmt.Sprintf("Password is too long (max %d bytes)", MaxPasswordBytes))
	}
	return username, nil
}

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken returns a random hex-encoded token for a session cookie.
func GenerateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
