package auth

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		otp     string
		wantErr bool
	}{
		{"123456", false},
		{"abcdef", false},
		{"12345", true},
		{"1234567", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.otp, func(t *testing.T) {
			err := ValidateOTP(tt.otp)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOTP)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfirmPassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ConfirmPassword("s3cret", "s3cret"))
	assert.ErrorIs(t, ConfirmPassword("s3cret", "secret"), ErrPasswordMismatch)
	assert.ErrorIs(t, ConfirmPassword("", ""), ErrEmptyPassword)
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateEmail("a@b.c"))
	assert.ErrorIs(t, ValidateEmail("   "), ErrEmptyEmail)
}

func TestPromptLine(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrompterFrom(strings.NewReader("ada@example.com\r\nlast"), &out)

	line, err := p.PromptLine("Email: ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", line)
	assert.Equal(t, "Email: ", out.String())

	line, err = p.PromptLine("Again: ")
	require.NoError(t, err)
	assert.Equal(t, "last", line, "final line without newline is returned")

	_, err = p.PromptLine("More: ")
	assert.Error(t, err)
}

func TestPromptAndConfirmPassword(t *testing.T) {
	t.Parallel()

	p := NewPrompterFrom(strings.NewReader("one\ntwo\n"), &bytes.Buffer{})
	pw, confirm, err := p.PromptAndConfirmPassword()
	require.NoError(t, err)
	assert.Equal(t, "one", pw)
	assert.ErrorIs(t, ConfirmPassword(pw, confirm), ErrPasswordMismatch)

	p = NewPrompterFrom(strings.NewReader("\n\n"), &bytes.Buffer{})
	pw, confirm, err = p.PromptAndConfirmPassword()
	require.NoError(t, err, "an empty entry is left to ConfirmPassword")
	assert.Empty(t, pw)
	assert.ErrorIs(t, ConfirmPassword(pw, confirm), ErrEmptyPassword)
}

func TestPromptOTPRetriesUntilValid(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrompterFrom(strings.NewReader("123\n 654321 \n"), &out)
	otp, err := p.PromptOTP("OTP: ")
	require.NoError(t, err)
	assert.Equal(t, "654321", otp)
	assert.Contains(t, out.String(), "OTP must be a 6-digit code.")
}
