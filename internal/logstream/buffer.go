// Package logstream consumes a server's text log socket into an ordered,
// timestamped buffer that views can subscribe to.
package logstream

import (
	"sync"
	"time"
)

// TimeFormat is the clock format used when rendering entries.
const TimeFormat = "15:04:05"

// Entry is one received line.
type Entry struct {
	Time time.Time
	Text string
}

// String renders the entry as "[HH:MM:SS] text".
func (e Entry) String() string {
	return "[" + e.Time.Format(TimeFormat) + "] " + e.Text
}

// Buffer is an append-only, order-preserving log. Reset starts a new
// session. It is safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	subs    map[int]func()
	nextSub int
	now     func() time.Time
}

// NewBuffer creates an empty Buffer stamped with the local clock.
func NewBuffer() *Buffer {
	return &Buffer{subs: make(map[int]func()), now: time.Now}
}

// Append adds text stamped with the current time.
func (b *Buffer) Append(text string) Entry {
	return b.AppendAt(b.now(), text)
}

// AppendAt adds text with an explicit timestamp.
func (b *Buffer) AppendAt(t time.Time, text string) Entry {
	e := Entry{Time: t, Text: text}

	b.mu.Lock()
	b.entries = append(b.entries, e)
	b.mu.Unlock()

	b.notify()
	return e
}

// Reset clears the buffer for a new session.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()

	b.notify()
}

// Entries returns a copy of every entry in arrival order.
func (b *Buffer) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Entry(nil), b.entries...)
}

// Lines returns every entry rendered with String.
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lines := make([]string, len(b.entries))
	for i, e := range b.entries {
		lines[i] = e.String()
	}
	return lines
}

// Since returns the entries from index n on. Followers use it to print only
// what is new.
func (b *Buffer) Since(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(b.entries) {
		return nil
	}
	return append([]Entry(nil), b.entries[n:]...)
}

// Len returns the number of entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Subscribe registers fn to run after every mutation. fn runs on the
// mutating goroutine and must not block. The returned func unsubscribes.
func (b *Buffer) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Buffer) notify() {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
