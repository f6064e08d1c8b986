package tui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	clearScreen = "\033[2J"
	cursorHome  = "\033[H"
	cursorHide  = "\033[?25l"
	cursorShow  = "\033[?25h"
)

// Terminal wraps stdin raw mode and the escape sequences the dashboard uses.
type Terminal struct {
	in       *os.File
	out      io.Writer
	oldState *term.State
}

// NewTerminal creates a Terminal reading from stdin and writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{in: os.Stdin, out: out}
}

// IsTerminal reports whether stdin is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

// EnterRaw puts the terminal into raw mode.
func (t *Terminal) EnterRaw() error {
	if t.oldState != nil {
		return fmt.Errorf("terminal already in raw mode")
	}
	oldState, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t.oldState = oldState
	return nil
}

// ExitRaw restores the terminal. It is a no-op outside raw mode.
func (t *Terminal) ExitRaw() error {
	if t.oldState == nil {
		return nil
	}
	if err := term.Restore(int(t.in.Fd()), t.oldState); err != nil {
		return fmt.Errorf("failed to restore terminal: %w", err)
	}
	t.oldState = nil
	return nil
}

// Size returns the terminal width and height.
func (t *Terminal) Size() (width, height int, err error) {
	width, height, err = term.GetSize(int(t.in.Fd()))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get terminal size: %w", err)
	}
	return width, height, nil
}

// Read reads raw input bytes.
func (t *Terminal) Read(p []byte) (int, error) {
	return t.in.Read(p)
}

// Clear clears the screen and homes the cursor.
func (t *Terminal) Clear() {
	fmt.Fprint(t.out, clearScreen+cursorHome)
}

// HideCursor hides the cursor.
func (t *Terminal) HideCursor() {
	fmt.Fprint(t.out, cursorHide)
}

// ShowCursor shows the cursor.
func (t *Terminal) ShowCursor() {
	fmt.Fprint(t.out, cursorShow)
}

// RingBell sounds the terminal bell.
func (t *Terminal) RingBell() {
	fmt.Fprint(t.out, Bell)
}

// WriteLines writes each line followed by CRLF, which raw mode needs.
func (t *Terminal) WriteLines(lines []string) {
	for _, line := range lines {
		fmt.Fprint(t.out, line+"\r\n")
	}
}
