// Package auth holds the client-side credential rules (OTP shape, password
// confirmation, email presence) and the terminal prompts that collect them.
package auth

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// OTPLength is the number of characters in an emailed one-time code.
const OTPLength = 6

var (
	// ErrEmptyEmail is returned when no email address was entered.
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidOTP is returned when a code is not OTPLength characters.
	ErrInvalidOTP = errors.New("OTP must be a 6-digit code")

	// ErrEmptyPassword is returned when the user enters an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordMismatch is returned when password confirmation doesn't match.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// ValidateEmail checks that an address was entered.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// ValidateOTP checks the length of a one-time code. The code is otherwise
// opaque; the backend decides whether it is correct.
func ValidateOTP(otp string) error {
	if utf8.RuneCountInString(otp) != OTPLength {
		return ErrInvalidOTP
	}
	return nil
}

// ConfirmPassword checks a new password against its confirmation.
func ConfirmPassword(password, confirm string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
