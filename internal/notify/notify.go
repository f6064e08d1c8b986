// Package notify defines the user-facing notices (toasts) that operations
// emit and the sinks that display them.
package notify

import "sync"

// Kind classifies a notice for styling.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	// KindDestructive marks failures; terminal sinks ring the bell for these.
	KindDestructive
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSuccess:
		return "success"
	case KindDestructive:
		return "destructive"
	default:
		return "unknown"
	}
}

// Notice is one toast: a short title plus a description.
type Notice struct {
	Title   string
	Message string
	Kind    Kind
}

// Info builds an informational notice.
func Info(title, message string) Notice {
	return Notice{Title: title, Message: message, Kind: KindInfo}
}

// Success builds a success notice.
func Success(title, message string) Notice {
	return Notice{Title: title, Message: message, Kind: KindSuccess}
}

// Destructive builds a failure notice.
func Destructive(title, message string) Notice {
	return Notice{Title: title, Message: message, Kind: KindDestructive}
}

// Sink receives notices.
type Sink interface {
	Notify(n Notice)
}

// Func adapts a function to Sink.
type Func func(Notice)

// Notify calls f(n).
func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Sink = Func(func(Notice) {})

// Recorder keeps every notice it receives. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices in arrival order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Titles returns the titles of the recorded notices.
func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.notices))
	for i, n := range r.notices {
		titles[i] = n.Title
	}
	return titles
}
