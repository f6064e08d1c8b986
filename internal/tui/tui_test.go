package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/logstream"
	"github.com/thruflo/ttsdash/internal/notify"
)

func newTestDashboard(tab Tab) (*Dashboard, *logstream.Buffer) {
	buf := logstream.NewBuffer()
	return NewDashboard(&bytes.Buffer{}, buf, Options{Tab: tab}), buf
}

func runes(s string) []KeyEvent {
	evs := make([]KeyEvent, 0, len(s))
	for _, r := range s {
		evs = append(evs, KeyEvent{Key: KeyRune, Rune: r})
	}
	return evs
}

func TestAction_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "load_model", ActionLoadModel.String())
	assert.Equal(t, "stop_training", ActionStopTraining.String())
	assert.Equal(t, "unknown", Action(42).String())
}

func TestDashboard_RenderEveryTab(t *testing.T) {
	t.Parallel()

	want := map[Tab]string{
		TabInference: "XTTSv2",
		TabTraining:  "Logs",
		TabDataset:   "No files uploaded.",
		TabProfile:   "Not signed in.",
	}

	for _, tab := range Tabs() {
		t.Run(tab.String(), func(t *testing.T) {
			t.Parallel()
			d, _ := newTestDashboard(tab)
			out := strings.Join(d.Render(80, 24), "\n")
			assert.Contains(t, out, want[tab])
			assert.Contains(t, out, "[q]uit")
		})
	}
}

func TestDashboard_TabNavigation(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(TabInference)

	d.handleKey(KeyEvent{Key: KeyTab})
	assert.Equal(t, TabTraining, d.Tab())

	d.handleKey(KeyEvent{Key: KeyLeft})
	d.handleKey(KeyEvent{Key: KeyLeft})
	assert.Equal(t, TabProfile, d.Tab())

	d.handleKey(KeyEvent{Key: KeyRune, Rune: '3'})
	assert.Equal(t, TabDataset, d.Tab())
}

func TestDashboard_InferenceActions(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(TabInference)

	d.handleKey(KeyEvent{Key: KeyDown})
	d.handleKey(KeyEvent{Key: KeyDown})
	d.handleKey(KeyEvent{Key: KeyUp})
	got := d.handleKey(KeyEvent{Key: KeyRune, Rune: 'l'})
	assert.Equal(t, ActionEvent{Action: ActionLoadModel, Model: "your-tts"}, got)

	d.SetLoadedModel("your-tts")
	d.handleKey(KeyEvent{Key: KeyRune, Rune: 'e'})
	for _, ev := range runes("hi q") {
		assert.Equal(t, ActionNone, d.handleKey(ev).Action, "typing must not trigger shortcuts")
	}
	got = d.handleKey(KeyEvent{Key: KeyEnter})
	assert.Equal(t, ActionEvent{Action: ActionSynthesize, Model: "your-tts", Text: "hi q"}, got)

	out := strings.Join(d.Render(80, 40), "\n")
	assert.Contains(t, out, "YourTTS (loaded)")
	assert.Contains(t, out, "> hi q")
}

func TestDashboard_SelectionClamped(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(TabInference)
	d.handleKey(KeyEvent{Key: KeyUp})
	assert.Equal(t, 0, d.State().Selected)

	for i := 0; i < 10; i++ {
		d.handleKey(KeyEvent{Key: KeyDown})
	}
	assert.Equal(t, len(d.State().Models)-1, d.State().Selected)
}

func TestDashboard_EscapeLeavesEditing(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(TabInference)
	d.handleKey(KeyEvent{Key: KeyRune, Rune: 'e'})
	d.handleKey(KeyEvent{Key: KeyEscape})

	assert.Equal(t, ActionQuit, d.handleKey(KeyEvent{Key: KeyRune, Rune: 'q'}).Action)
}

func TestDashboard_StopOnlyOnTrainingTab(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(TabDataset)
	assert.Equal(t, ActionNone, d.handleKey(KeyEvent{Key: KeyRune, Rune: 's'}).Action)

	d.SetTab(TabTraining)
	assert.Equal(t, ActionStopTraining, d.handleKey(KeyEvent{Key: KeyRune, Rune: 's'}).Action)
}

func TestDashboard_TrainingTabTailsBuffer(t *testing.T) {
	t.Parallel()

	d, buf := newTestDashboard(TabTraining)
	d.SetTraining(true, "ljspeech", 10)
	buf.Append("Training step 1")
	buf.Append("Training step 2")

	out := strings.Join(d.Render(80, 30), "\n")
	assert.Contains(t, out, "Training step 2")
	assert.Contains(t, out, "ljspeech")
}

func TestDashboard_NotifyShowsToasts(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(TabProfile)
	d.SetProfile(&api.Profile{ID: "u1", Email: "ada@example.com"})

	var sink notify.Sink = d
	sink.Notify(notify.Destructive("Training stopped", "Model training has been interrupted."))

	assert.Len(t, d.Toasts(), 1)
	out := strings.Join(d.Render(80, 24), "\n")
	assert.Contains(t, out, "Training stopped: Model training has been interrupted.")
	assert.Contains(t, out, "ada@example.com")
}

func TestDashboard_UpdateNoopWhenNotRunning(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := NewDashboard(&out, logstream.NewBuffer(), Options{})
	d.Update()
	d.SetLastSpeech("saved")
	assert.Zero(t, out.Len())
	assert.False(t, d.IsRunning())
}
