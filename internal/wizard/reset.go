package wizard

import (
	"context"
	"strings"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/notify"
)

// ResetStage is a stage of the forgot-password flow.
type ResetStage int

const (
	ResetEmail ResetStage = iota
	ResetOTP
	ResetPassword
	ResetDone
)

func (s ResetStage) String() string {
	switch s {
	case ResetEmail:
		return "email"
	case ResetOTP:
		return "otp"
	case ResetPassword:
		return "reset"
	case ResetDone:
		return "done"
	default:
		return "unknown"
	}
}

// Heading returns the title shown above the stage's form.
func (s ResetStage) Heading() string {
	switch s {
	case ResetEmail:
		return "Forgot Password: enter your email to receive a reset code"
	case ResetOTP:
		return "Enter OTP: enter the 6-digit code sent to your email"
	case ResetPassword:
		return "Reset Password: create a new password for your account"
	case ResetDone:
		return "Password reset"
	default:
		return ""
	}
}

// ResetClient is the backend surface used by the password reset flow.
type ResetClient interface {
	Forget(ctx context.Context, email string) (*api.MessageResponse, error)
	VerifyOTP(ctx context.Context, email, otp string) (*api.MessageResponse, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (*api.MessageResponse, error)
}

// NewPasswordReset builds the email -> otp -> reset flow. The email is
// carried through every stage and the OTP into the reset stage; the new
// password is never carried.
func NewPasswordReset(c ResetClient) *Wizard[ResetStage] {
	return MustNew("password-reset", ResetEmail, ResetDone,
		Step[ResetStage]{
			Stage:    ResetEmail,
			Next:     ResetOTP,
			Carry:    []string{FieldEmail},
			Validate: requireEmail,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				if _, err := c.Forget(ctx, f[FieldEmail]); err != nil {
					return notify.Notice{}, err
				}
				return notify.Success("OTP Sent", "Check your email for the verification code."), nil
			},
			FailureTitle: "Failed to Send OTP",
			Fallback:     "Something went wrong.",
		},
		Step[ResetStage]{
			Stage:    ResetOTP,
			Next:     ResetPassword,
			Carry:    []string{FieldEmail, FieldOTP},
			Validate: requireOTP,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				if _, err := c.VerifyOTP(ctx, f[FieldEmail], strings.TrimSpace(f[FieldOTP])); err != nil {
					return notify.Notice{}, err
				}
				return notify.Success("OTP Verified", "You can now reset your password."), nil
			},
			FailureTitle: "OTP Verification Failed",
			Fallback:     "Something went wrong.",
		},
		Step[ResetStage]{
			Stage:    ResetPassword,
			Next:     ResetDone,
			Validate: requireMatchingPasswords,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				_, err := c.ResetPassword(ctx, f[FieldEmail], strings.TrimSpace(f[FieldOTP]), f[FieldPassword])
				if err != nil {
					return notify.Notice{}, err
				}
				return notify.Success("Password Reset Successful", "You can now log in with your new password."), nil
			},
			FailureTitle: "Reset Failed",
			Fallback:     "Something went wrong.",
		},
	)
}
