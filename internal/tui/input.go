package tui

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// Key represents a keyboard input.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlC
	KeyRune
)

// KeyEvent is one key press. Rune is set only for KeyRune.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// KeyReader decodes key presses from raw terminal input.
type KeyReader struct {
	reader *bufio.Reader
}

// NewKeyReader creates a KeyReader over r.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{reader: bufio.NewReaderSize(r, 64)}
}

// ReadKey blocks until a key is pressed.
func (k *KeyReader) ReadKey() (KeyEvent, error) {
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}

	switch {
	case b == 0x03:
		return KeyEvent{Key: KeyCtrlC}, nil
	case b == 0x09:
		return KeyEvent{Key: KeyTab}, nil
	case b == 0x0D || b == 0x0A:
		return KeyEvent{Key: KeyEnter}, nil
	case b == 0x7F || b == 0x08:
		return KeyEvent{Key: KeyBackspace}, nil
	case b == 0x1B:
		return k.readEscape(), nil
	case b >= 0x20 && b < 0x7F:
		return KeyEvent{Key: KeyRune, Rune: rune(b)}, nil
	case b >= 0xC0:
		return k.readUTF8(b)
	default:
		return KeyEvent{Key: KeyUnknown}, nil
	}
}

// readEscape decodes arrow keys; anything else is a plain escape.
func (k *KeyReader) readEscape() KeyEvent {
	if k.reader.Buffered() == 0 {
		return KeyEvent{Key: KeyEscape}
	}
	b, err := k.reader.ReadByte()
	if err != nil || (b != '[' && b != 'O') {
		if err == nil {
			_ = k.reader.UnreadByte()
		}
		return KeyEvent{Key: KeyEscape}
	}

	b, err = k.reader.ReadByte()
	if err != nil {
		return KeyEvent{Key: KeyEscape}
	}
	switch b {
	case 'A':
		return KeyEvent{Key: KeyUp}
	case 'B':
		return KeyEvent{Key: KeyDown}
	case 'C':
		return KeyEvent{Key: KeyRight}
	case 'D':
		return KeyEvent{Key: KeyLeft}
	}
	for k.reader.Buffered() > 0 {
		next, _ := k.reader.ReadByte()
		if (next >= 'A' && next <= 'Z') || next == '~' {
			break
		}
	}
	return KeyEvent{Key: KeyUnknown}
}

func (k *KeyReader) readUTF8(first byte) (KeyEvent, error) {
	var n int
	switch {
	case first&0xE0 == 0xC0:
		n = 2
	case first&0xF0 == 0xE0:
		n = 3
	case first&0xF8 == 0xF0:
		n = 4
	default:
		return KeyEvent{Key: KeyUnknown}, nil
	}

	buf := []byte{first}
	for i := 1; i < n; i++ {
		b, err := k.reader.ReadByte()
		if err != nil {
			return KeyEvent{Key: KeyUnknown}, err
		}
		buf = append(buf, b)
	}

	r, _ := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return KeyEvent{Key: KeyUnknown}, nil
	}
	return KeyEvent{Key: KeyRune, Rune: r}, nil
}

// Shortcut is a dashboard command bound to a key.
type Shortcut int

const (
	ShortcutNone    Shortcut = iota
	ShortcutNextTab          // tab, right
	ShortcutPrevTab          // left
	ShortcutJump             // 1-4
	ShortcutUp               // up, k
	ShortcutDown             // down, j
	ShortcutLoad             // l
	ShortcutEdit             // e
	ShortcutSubmit           // enter
	ShortcutStop             // s
	ShortcutFollow           // f
	ShortcutQuit             // q, ctrl+c
)

// ParseShortcut maps a key press to a Shortcut outside text entry.
func ParseShortcut(ev KeyEvent) Shortcut {
	switch ev.Key {
	case KeyTab, KeyRight:
		return ShortcutNextTab
	case KeyLeft:
		return ShortcutPrevTab
	case KeyUp:
		return ShortcutUp
	case KeyDown:
		return ShortcutDown
	case KeyEnter:
		return ShortcutSubmit
	case KeyCtrlC:
		return ShortcutQuit
	case KeyRune:
		if _, ok := JumpTarget(ev); ok {
			return ShortcutJump
		}
		switch ev.Rune {
		case 'k', 'K':
			return ShortcutUp
		case 'j', 'J':
			return ShortcutDown
		case 'l', 'L':
			return ShortcutLoad
		case 'e', 'E':
			return ShortcutEdit
		case 's', 'S':
			return ShortcutStop
		case 'f', 'F':
			return ShortcutFollow
		case 'q', 'Q':
			return ShortcutQuit
		}
	}
	return ShortcutNone
}

// JumpTarget returns the tab selected by a number key.
func JumpTarget(ev KeyEvent) (Tab, bool) {
	if ev.Key != KeyRune || ev.Rune < '1' {
		return 0, false
	}
	i := int(ev.Rune - '1')
	tabs := Tabs()
	if i >= len(tabs) {
		return 0, false
	}
	return tabs[i], true
}

// LineEditor holds a single line of text input with a cursor.
type LineEditor struct {
	buffer []rune
	cursor int
}

// NewLineEditor creates an empty LineEditor.
func NewLineEditor() *LineEditor {
	return &LineEditor{buffer: make([]rune, 0, 256)}
}

// HandleKey applies ev and reports whether Enter completed the line.
func (e *LineEditor) HandleKey(ev KeyEvent) bool {
	switch ev.Key {
	case KeyEnter:
		return true
	case KeyBackspace:
		if e.cursor > 0 {
			copy(e.buffer[e.cursor-1:], e.buffer[e.cursor:])
			e.buffer = e.buffer[:len(e.buffer)-1]
			e.cursor--
		}
	case KeyLeft:
		if e.cursor > 0 {
			e.cursor--
		}
	case KeyRight:
		if e.cursor < len(e.buffer) {
			e.cursor++
		}
	case KeyRune:
		e.buffer = append(e.buffer, 0)
		copy(e.buffer[e.cursor+1:], e.buffer[e.cursor:])
		e.buffer[e.cursor] = ev.Rune
		e.cursor++
	}
	return false
}

// Text returns the current line.
func (e *LineEditor) Text() string {
	return string(e.buffer)
}

// SetText replaces the line and moves the cursor to its end.
func (e *LineEditor) SetText(s string) {
	e.buffer = append(e.buffer[:0], []rune(s)...)
	e.cursor = len(e.buffer)
}

// Clear empties the line.
func (e *LineEditor) Clear() {
	e.buffer = e.buffer[:0]
	e.cursor = 0
}

// Cursor returns the cursor position in runes.
func (e *LineEditor) Cursor() int {
	return e.cursor
}
