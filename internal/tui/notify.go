package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/thruflo/ttsdash/internal/notify"
)

// Bell is the terminal bell control character.
const Bell = "\a"

// DefaultToastLimit is how many recent notices a Toaster keeps for display.
const DefaultToastLimit = 3

// Toaster shows notices as styled one-line toasts. Destructive notices also
// ring the terminal bell. It implements notify.Sink.
type Toaster struct {
	mu     sync.Mutex
	out    io.Writer
	limit  int
	recent []notify.Notice
}

// NewToaster creates a Toaster. When out is non-nil each toast is also
// written to it as soon as it arrives.
func NewToaster(out io.Writer, limit int) *Toaster {
	if limit < 1 {
		limit = DefaultToastLimit
	}
	return &Toaster{out: out, limit: limit}
}

// Notify records n and, with an output configured, prints it.
func (t *Toaster) Notify(n notify.Notice) {
	t.mu.Lock()
	t.recent = append(t.recent, n)
	if len(t.recent) > t.limit {
		t.recent = t.recent[len(t.recent)-t.limit:]
	}
	out := t.out
	t.mu.Unlock()

	if out == nil {
		return
	}
	if n.Kind == notify.KindDestructive {
		fmt.Fprint(out, Bell)
	}
	fmt.Fprintln(out, RenderToast(n))
}

// Recent returns the most recent notices, oldest first.
func (t *Toaster) Recent() []notify.Notice {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]notify.Notice(nil), t.recent...)
}

// Clear forgets the recent notices.
func (t *Toaster) Clear() {
	t.mu.Lock()
	t.recent = nil
	t.mu.Unlock()
}

// RenderToast formats a notice as "<mark> Title: message".
func RenderToast(n notify.Notice) string {
	var mark string
	switch n.Kind {
	case notify.KindSuccess:
		mark = SuccessStyle.Render("✓")
	case notify.KindDestructive:
		mark = ErrorStyle.Render("✗")
	case notify.KindInfo:
		mark = TitleStyle.Render("●")
	default:
		mark = MutedStyle.Render("·")
	}

	line := mark + " " + TitleStyle.Render(n.Title)
	if n.Message != "" {
		line += ": " + n.Message
	}
	return line
}
