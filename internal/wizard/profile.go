package wizard

import (
	"context"
	"strings"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/notify"
)

// ProfileStage is a stage of the profile change flow.
type ProfileStage int

const (
	ProfileEdit ProfileStage = iota
	ProfileOTP
	ProfileDone
)

func (s ProfileStage) String() string {
	switch s {
	case ProfileEdit:
		return "edit"
	case ProfileOTP:
		return "otp"
	case ProfileDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProfileClient is the backend surface used by the profile change flow.
type ProfileClient interface {
	SendOTP(ctx context.Context, email string) (*api.MessageResponse, error)
	UpdateProfile(ctx context.Context, userID string, req api.UpdateProfileRequest) (*api.MessageResponse, error)
}

// NewProfileChange builds the edit -> otp flow for the account in current.
// The edit stage starts pre-filled with the current values; the pending
// values are carried as wizard fields until the OTP confirms them. The OTP
// is sent to the account's current address, which is the one the backend
// checks it against.
func NewProfileChange(c ProfileClient, current api.Profile) *Wizard[ProfileStage] {
	w := MustNew("profile-change", ProfileEdit, ProfileDone,
		Step[ProfileStage]{
			Stage:    ProfileEdit,
			Next:     ProfileOTP,
			Carry:    []string{FieldFirstname, FieldLastname, FieldEmail},
			Validate: requireEmail,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				if _, err := c.SendOTP(ctx, current.Email); err != nil {
					return notify.Notice{}, err
				}
				return notify.Success("OTP Sent", "Please check your email and enter the OTP to continue."), nil
			},
			FailureTitle: "Failed to send OTP",
			Fallback:     "Something went wrong while sending the OTP.",
		},
		Step[ProfileStage]{
			Stage:    ProfileOTP,
			Next:     ProfileDone,
			Validate: requireOTP,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				resp, err := c.UpdateProfile(ctx, current.ID, api.UpdateProfileRequest{
					Firstname: strings.TrimSpace(f[FieldFirstname]),
					Lastname:  strings.TrimSpace(f[FieldLastname]),
					Email:     api.NormalizeEmail(f[FieldEmail]),
					OTP:       strings.TrimSpace(f[FieldOTP]),
				})
				if err != nil {
					return notify.Notice{}, err
				}
				msg := "Profile updated."
				if resp != nil && resp.Message != "" {
					msg = resp.Message
				}
				return notify.Success("Success", msg), nil
			},
			FailureTitle: "Verification Error",
			Fallback:     "Failed to verify OTP. Please try again.",
		},
	)

	w.fields[FieldFirstname] = current.Firstname
	w.fields[FieldLastname] = current.Lastname
	w.fields[FieldEmail] = current.Email
	return w
}
