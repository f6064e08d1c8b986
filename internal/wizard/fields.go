package wizard

import (
	"strings"

	"github.com/thruflo/ttsdash/internal/auth"
)

// Field names shared by the wizards.
const (
	FieldEmail     = "email"
	FieldOTP       = "otp"
	FieldPassword  = "password"
	FieldConfirm   = "confirm"
	FieldFirstname = "firstname"
	FieldLastname  = "lastname"
	FieldModelName = "name"
)

func requireEmail(f Fields) error {
	if auth.ValidateEmail(f[FieldEmail]) != nil {
		return &ValidationError{
			Field:   FieldEmail,
			Title:   "Missing Email",
			Message: "Please enter your email address.",
		}
	}
	return nil
}

// requireOTP checks the code as entered. Surrounding whitespace is rejected
// too, since the code sent is trimmed and would no longer be six characters.
func requireOTP(f Fields) error {
	otp := f[FieldOTP]
	if auth.ValidateOTP(otp) != nil || strings.TrimSpace(otp) != otp {
		return &ValidationError{
			Field:   FieldOTP,
			Title:   "Invalid OTP",
			Message: "OTP must be a 6-digit code.",
		}
	}
	return nil
}

func requireMatchingPasswords(f Fields) error {
	switch auth.ConfirmPassword(f[FieldPassword], f[FieldConfirm]) {
	case nil:
		return nil
	case auth.ErrEmptyPassword:
		return &ValidationError{
			Field:   FieldPassword,
			Title:   "Missing password",
			Message: "Please enter a new password.",
		}
	default:
		return &ValidationError{
			Field:   FieldConfirm,
			Title:   "Password mismatch",
			Message: "Passwords do not match.",
		}
	}
}

func requireModelName(f Fields) error {
	if strings.TrimSpace(f[FieldModelName]) == "" {
		return &ValidationError{
			Field:   FieldModelName,
			Title:   "Missing model name",
			Message: "Please enter a name for the model.",
		}
	}
	return nil
}
