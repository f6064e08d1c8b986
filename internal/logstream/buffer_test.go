package logstream

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryString(t *testing.T) {
	t.Parallel()
	e := Entry{Time: time.Date(2026, 5, 1, 9, 4, 7, 0, time.Local), Text: "Training step 3"}
	assert.Equal(t, "[09:04:07] Training step 3", e.String())
}

func TestBufferPreservesOrder(t *testing.T) {
	t.Parallel()
	b := NewBuffer()
	for i := 0; i < 5; i++ {
		b.Append(fmt.Sprintf("line %d", i))
	}

	entries := b.Entries()
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("line %d", i), e.Text)
	}

	// Earlier snapshots are prefixes of later ones.
	b.Append("line 5")
	assert.Equal(t, entries, b.Entries()[:5])
	assert.Equal(t, "line 5", b.Since(5)[0].Text)
	assert.Nil(t, b.Since(6))
}

func TestBufferSubscribersSeeEveryMutation(t *testing.T) {
	t.Parallel()
	b := NewBuffer()

	var mu sync.Mutex
	var lens []int
	cancel := b.Subscribe(func() {
		mu.Lock()
		lens = append(lens, b.Len())
		mu.Unlock()
	})

	b.Append("a")
	b.Append("b")
	b.Reset()
	cancel()
	b.Append("c")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 0}, lens)
}

func TestBufferLines(t *testing.T) {
	t.Parallel()
	b := NewBuffer()
	b.now = func() time.Time { return time.Date(2026, 1, 1, 23, 59, 1, 0, time.Local) }
	b.Append("hello")
	assert.Equal(t, []string{"[23:59:01] hello"}, b.Lines())
}
