// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"smartbarangay/internal/models"
)

const (
	// MinPasswordLength is the shortest password the reports API accepts.
	MinPasswordLength = 6
	maxPasswordLength = 128
	maxFullNameLength = 120
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[0-9 +()-]{7,15}$`)
)

// ValidatePassword checks the length bounds of a password
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	return nil
}

// ValidatePhone checks an optional contact number. Empty is allowed.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("phone number must be 7-15 digits and may contain spaces, +, ( ) and -")
	}
	return nil
}

// ValidateRegistration checks a signup form.
func ValidateRegistration(r models.Registration) error {
	name := strings.TrimSpace(r.FullName)
	if name == "" || r.Email == "" || r.Password == "" {
		return fmt.Errorf("full name, email, and password are required")
	}
	if len(name) > maxFullNameLength {
		return fmt.Errorf("full name must not exceed %d characters", maxFullNameLength)
	}
	if err := ValidateEmail(strings.TrimSpace(r.Email)); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("passwords do not match")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	return ValidatePhone(strings.TrimSpace(r.Phone))
}

// ValidatePasswordChange checks a password change request. confirm is the
// repeated new password.
func ValidatePasswordChange(change models.PasswordChange, confirm string) error {
	if change.CurrentPassword == "" || change.NewPassword == "" {
		return fmt.Errorf("current and new password are required")
	}
	if change.NewPassword != confirm {
		return fmt.Errorf("new passwords do not match")
	}
	if err := ValidatePassword(change.NewPassword); err != nil {
		return err
	}
	if change.NewPassword == change.CurrentPassword {
		return fmt.Errorf("new password must be different from current password")
	}
	return nil
}
