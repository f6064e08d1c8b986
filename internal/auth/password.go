package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers from a terminal or, in tests and pipes, from any
// reader.
type Prompter struct {
	in  io.Reader
	out io.Writer
	fd  int
	// isTerminal reports whether fd is an interactive terminal.
	isTerminal bool
	reader     *bufio.Reader
}

// NewPrompter creates a Prompter on stdin/stdout.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	return &Prompter{
		in:         os.Stdin,
		out:        os.Stdout,
		fd:         fd,
		isTerminal: term.IsTerminal(fd),
	}
}

// NewPrompterFrom creates a non-terminal Prompter. Passwords are read as
// plain lines.
func NewPrompterFrom(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, fd: -1}
}

func (p *Prompter) lines() *bufio.Reader {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	return p.reader
}

// PromptLine prints prompt and returns the entered line without its newline.
func (p *Prompter) PromptLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.lines().ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptPassword prompts for a password, hiding input on a terminal.
func (p *Prompter) PromptPassword(prompt string) (string, error) {
	if !p.isTerminal {
		return p.PromptLine(prompt)
	}

	fmt.Fprint(p.out, prompt)
	password, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// PromptAndConfirmPassword prompts for a new password twice. Both entries
// are returned as typed; use ConfirmPassword to check them.
func (p *Prompter) PromptAndConfirmPassword() (string, string, error) {
	password, err := p.PromptPassword("New password: ")
	if err != nil {
		return "", "", err
	}

	confirm, err := p.PromptPassword("Confirm password: ")
	if err != nil {
		return "", "", err
	}
	return password, confirm, nil
}

// PromptOTP prompts until a code of the right length is entered or input
// ends.
func (p *Prompter) PromptOTP(prompt string) (string, error) {
	for {
		otp, err := p.PromptLine(prompt)
		if err != nil {
			return "", err
		}
		otp = strings.TrimSpace(otp)
		if ValidateOTP(otp) == nil {
			return otp, nil
		}
		fmt.Fprintf(p.out, "OTP must be a %d-digit code.\n", OTPLength)
	}
}
