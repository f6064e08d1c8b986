package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thruflo/ttsdash/internal/notify"
)

func TestToaster_BellOnlyForDestructive(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	toaster := NewToaster(&out, 0)

	toaster.Notify(notify.Success("Training started", ""))
	assert.NotContains(t, out.String(), Bell)

	toaster.Notify(notify.Destructive("Invalid file type", "x.exe is not a supported file type."))
	assert.Equal(t, 1, strings.Count(out.String(), Bell))
	assert.Contains(t, out.String(), "Invalid file type: x.exe is not a supported file type.")
}

func TestToaster_KeepsMostRecent(t *testing.T) {
	t.Parallel()

	toaster := NewToaster(nil, 2)
	toaster.Notify(notify.Info("one", ""))
	toaster.Notify(notify.Info("two", ""))
	toaster.Notify(notify.Info("three", ""))

	recent := toaster.Recent()
	assert.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Title)
	assert.Equal(t, "three", recent[1].Title)

	toaster.Clear()
	assert.Empty(t, toaster.Recent())
}

func TestRenderToast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		notice notify.Notice
		want   string
	}{
		{"success", notify.Success("Saved", "ok"), "✓ Saved: ok"},
		{"destructive", notify.Destructive("Failed", "boom"), "✗ Failed: boom"},
		{"info without message", notify.Info("Hello", ""), "● Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RenderToast(tt.notice))
		})
	}
}
