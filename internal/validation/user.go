// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength     = 2
	MaxNameLength     = 50
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
	MaxEmailLength   = 254
)

// ValidateName checks the display name after trimming surrounding space.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinNameLength || n > MaxNameLength {
		return fmt.Errorf("name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	return nil
}

// ValidateEmail accepts a bare address such as user@example.com. Display-name
// forms like "Ann <ann@example.com>" are rejected.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("please provide a valid email")
	}
	_, domain, _ := strings.Cut(email, "@")
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("please provide a valid email")
	}
	return nil
}

// ValidatePassword checks the password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}
