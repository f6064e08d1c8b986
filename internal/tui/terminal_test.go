package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(*Terminal)
		want  string
	}{
		{"clear", (*Terminal).Clear, "\033[2J\033[H"},
		{"hide cursor", (*Terminal).HideCursor, "\033[?25l"},
		{"show cursor", (*Terminal).ShowCursor, "\033[?25h"},
		{"bell", (*Terminal).RingBell, "\a"},
		{"lines", func(term *Terminal) { term.WriteLines([]string{"a", "", "b"}) }, "a\r\n\r\nb\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.write(NewTerminal(&buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestExitRawOutsideRawModeIsNoop(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewTerminal(&bytes.Buffer{}).ExitRaw())
}
