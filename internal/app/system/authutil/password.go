// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is in bytes; bcrypt rejects longer input.
	MaxPasswordLength = 72

	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = bcrypt.DefaultCost
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common")
)

// commonPasswords are rejected regardless of case.
var commonPasswords = map[string]struct{}{
	"12345678":   {},
	"123456789":  {},
	"password":   {},
	"password1":  {},
	"qwertyuiop": {},
	"iloveyou1":  {},
	"letmein123": {},
	"football1":  {},
	"welcome1":   {},
	"abc12345":   {},
	"11111111":   {},
	"sunshine1":  {},
}

// ValidatePassword checks length and rejects well-known passwords.
func ValidatePassword(pw string) error {
	if len([]rune(pw)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes the password policy for error messages.
func PasswordRules() string {
	return fmt.Sprintf("Passwords must be at least %d characters, at most %d bytes, and not a commonly used password.",
		MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
