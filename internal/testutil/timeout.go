package testutil

import (
	"context"
	"testing"
	"time"
)

const (
	// DefaultShortTimeout bounds a single request against the fake backend.
	DefaultShortTimeout = 5 * time.Second

	// DefaultStreamTimeout bounds tests that wait for log lines.
	DefaultStreamTimeout = 15 * time.Second

	// DefaultTestBuffer is subtracted from the test deadline so cleanup can
	// run before the test binary times out.
	DefaultTestBuffer = 2 * time.Second
)

// ContextWithTestDeadline returns a context ending DefaultTestBuffer before
// the test deadline, or after fallback when the test has none.
func ContextWithTestDeadline(t testing.TB, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadlineBuffer(t, fallback, DefaultTestBuffer)
}

// ContextWithTestDeadlineBuffer is ContextWithTestDeadline with a custom
// buffer. A deadline already inside the buffer falls back to fallback.
func ContextWithTestDeadlineBuffer(t testing.TB, fallback, buffer time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if dt, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if deadline, ok := dt.Deadline(); ok {
			adjusted := deadline.Add(-buffer)
			if time.Until(adjusted) > 0 && time.Until(adjusted) < fallback {
				return context.WithDeadline(context.Background(), adjusted)
			}
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// ShortContext is for single request/response round trips.
func ShortContext(t testing.TB) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultShortTimeout)
}

// StreamContext is for tests that wait on a log stream.
func StreamContext(t testing.TB) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultStreamTimeout)
}
