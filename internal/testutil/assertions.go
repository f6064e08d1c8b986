package testutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/notify"
)

// AssertNoticeTitles asserts the recorder saw exactly these titles, in order.
func AssertNoticeTitles(t testing.TB, rec *notify.Recorder, titles ...string) {
	t.Helper()
	if len(titles) == 0 {
		assert.Empty(t, rec.Titles(), "expected no notices")
		return
	}
	assert.Equal(t, titles, rec.Titles(), "notice titles mismatch")
}

// AssertLastNotice asserts the most recent notice's kind and title.
func AssertLastNotice(t testing.TB, rec *notify.Recorder, kind notify.Kind, title string) {
	t.Helper()
	notices := rec.Notices()
	require.NotEmpty(t, notices, "no notices recorded")
	last := notices[len(notices)-1]
	assert.Equal(t, title, last.Title, "last notice title mismatch")
	assert.Equal(t, kind, last.Kind, "last notice kind mismatch")
}

// AssertLinesInOrder asserts every want string appears in lines, each in a
// later line than the previous one.
func AssertLinesInOrder(t testing.TB, lines []string, want ...string) {
	t.Helper()
	i := 0
	for _, line := range lines {
		if i < len(want) && strings.Contains(line, want[i]) {
			i++
		}
	}
	if i < len(want) {
		assert.Fail(t, "log lines out of order", "missing %q after %d matches in %v", want[i], i, lines)
	}
}

// AssertAPIStatus asserts err wraps an *api.APIError with the given status.
func AssertAPIStatus(t testing.TB, err error, status int) {
	t.Helper()
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr), "expected *api.APIError, got %v", err)
	assert.Equal(t, status, apiErr.Status, "status mismatch: %s", apiErr.Detail)
}
