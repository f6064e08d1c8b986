package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderKeepsOrder(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Notify(Info("a", "1"))
	r.Notify(Destructive("b", "2"))

	assert.Equal(t, []string{"a", "b"}, r.Titles())
	assert.Equal(t, KindDestructive, r.Notices()[1].Kind)
}

func TestRecorderConcurrent(t *testing.T) {
	t.Parallel()

	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(Success("ok", ""))
		}()
	}
	wg.Wait()
	assert.Len(t, r.Notices(), 50)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "info", KindInfo.String())
	assert.Equal(t, "success", KindSuccess.String())
	assert.Equal(t, "destructive", KindDestructive.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
