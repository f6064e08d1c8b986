package tui

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyReader_ReadKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  KeyEvent
	}{
		{"letter", []byte{'a'}, KeyEvent{Key: KeyRune, Rune: 'a'}},
		{"digit", []byte{'3'}, KeyEvent{Key: KeyRune, Rune: '3'}},
		{"ctrl+c", []byte{0x03}, KeyEvent{Key: KeyCtrlC}},
		{"tab", []byte{0x09}, KeyEvent{Key: KeyTab}},
		{"enter CR", []byte{0x0D}, KeyEvent{Key: KeyEnter}},
		{"enter LF", []byte{0x0A}, KeyEvent{Key: KeyEnter}},
		{"backspace", []byte{0x7F}, KeyEvent{Key: KeyBackspace}},
		{"escape", []byte{0x1B}, KeyEvent{Key: KeyEscape}},
		{"up", []byte{0x1B, '[', 'A'}, KeyEvent{Key: KeyUp}},
		{"down", []byte{0x1B, '[', 'B'}, KeyEvent{Key: KeyDown}},
		{"right", []byte{0x1B, '[', 'C'}, KeyEvent{Key: KeyRight}},
		{"left SS3", []byte{0x1B, 'O', 'D'}, KeyEvent{Key: KeyLeft}},
		{"delete sequence", []byte{0x1B, '[', '3', '~'}, KeyEvent{Key: KeyUnknown}},
		{"utf8", []byte("é"), KeyEvent{Key: KeyRune, Rune: 'é'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewKeyReader(bytes.NewReader(tt.input)).ReadKey()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyReader_EOF(t *testing.T) {
	t.Parallel()

	_, err := NewKeyReader(bytes.NewReader(nil)).ReadKey()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseShortcut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   KeyEvent
		want Shortcut
	}{
		{"tab", KeyEvent{Key: KeyTab}, ShortcutNextTab},
		{"right", KeyEvent{Key: KeyRight}, ShortcutNextTab},
		{"left", KeyEvent{Key: KeyLeft}, ShortcutPrevTab},
		{"1", KeyEvent{Key: KeyRune, Rune: '1'}, ShortcutJump},
		{"4", KeyEvent{Key: KeyRune, Rune: '4'}, ShortcutJump},
		{"5", KeyEvent{Key: KeyRune, Rune: '5'}, ShortcutNone},
		{"j", KeyEvent{Key: KeyRune, Rune: 'j'}, ShortcutDown},
		{"K", KeyEvent{Key: KeyRune, Rune: 'K'}, ShortcutUp},
		{"l", KeyEvent{Key: KeyRune, Rune: 'l'}, ShortcutLoad},
		{"e", KeyEvent{Key: KeyRune, Rune: 'e'}, ShortcutEdit},
		{"s", KeyEvent{Key: KeyRune, Rune: 's'}, ShortcutStop},
		{"f", KeyEvent{Key: KeyRune, Rune: 'f'}, ShortcutFollow},
		{"enter", KeyEvent{Key: KeyEnter}, ShortcutSubmit},
		{"q", KeyEvent{Key: KeyRune, Rune: 'q'}, ShortcutQuit},
		{"ctrl+c", KeyEvent{Key: KeyCtrlC}, ShortcutQuit},
		{"x", KeyEvent{Key: KeyRune, Rune: 'x'}, ShortcutNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseShortcut(tt.ev))
		})
	}
}

func TestJumpTarget(t *testing.T) {
	t.Parallel()

	tab, ok := JumpTarget(KeyEvent{Key: KeyRune, Rune: '2'})
	require.True(t, ok)
	assert.Equal(t, TabTraining, tab)

	_, ok = JumpTarget(KeyEvent{Key: KeyRune, Rune: '0'})
	assert.False(t, ok)
	_, ok = JumpTarget(KeyEvent{Key: KeyEnter})
	assert.False(t, ok)
}

func TestLineEditor(t *testing.T) {
	t.Parallel()

	e := NewLineEditor()
	for _, r := range "helo" {
		assert.False(t, e.HandleKey(KeyEvent{Key: KeyRune, Rune: r}))
	}
	e.HandleKey(KeyEvent{Key: KeyLeft})
	e.HandleKey(KeyEvent{Key: KeyRune, Rune: 'l'})
	assert.Equal(t, "hello", e.Text())
	assert.Equal(t, 4, e.Cursor())

	e.HandleKey(KeyEvent{Key: KeyRight})
	e.HandleKey(KeyEvent{Key: KeyBackspace})
	assert.Equal(t, "hell", e.Text())

	assert.True(t, e.HandleKey(KeyEvent{Key: KeyEnter}))

	e.SetText("héllo")
	assert.Equal(t, 5, e.Cursor())
	e.Clear()
	assert.Empty(t, e.Text())
	assert.Zero(t, e.Cursor())
}
