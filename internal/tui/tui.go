// Package tui renders the ttsdash terminal dashboard: a tab bar over the
// inference, training, dataset and profile views, with notices shown as
// toasts beneath the active view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/files"
	"github.com/thruflo/ttsdash/internal/inference"
	"github.com/thruflo/ttsdash/internal/logstream"
	"github.com/thruflo/ttsdash/internal/notify"
)

// Action is a request from the dashboard that the caller carries out.
type Action int

const (
	ActionNone Action = iota
	ActionLoadModel
	ActionSynthesize
	ActionStopTraining
	ActionQuit
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionLoadModel:
		return "load_model"
	case ActionSynthesize:
		return "synthesize"
	case ActionStopTraining:
		return "stop_training"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// ActionEvent is sent when the user triggers an action. Model is set for
// ActionLoadModel and ActionSynthesize, Text for ActionSynthesize.
type ActionEvent struct {
	Action Action
	Model  string
	Text   string
}

// Options configures a Dashboard.
type Options struct {
	Tab         Tab
	MaxLogLines int
	ToastLimit  int
}

// Dashboard is the tabbed terminal UI. It implements notify.Sink so
// operations can report straight into it.
type Dashboard struct {
	terminal *Terminal
	mu       sync.Mutex
	tab      Tab
	state    ViewState
	editing  bool
	editor   *LineEditor
	tail     *TailView
	toaster  *Toaster
	width    int
	height   int
	running  bool
	actionCh chan ActionEvent

	inferenceView *InferenceView
	trainingView  *TrainingView
	datasetView   *DatasetView
	profileView   *ProfileView
}

// NewDashboard creates a Dashboard writing to out and tailing buf.
func NewDashboard(out io.Writer, buf *logstream.Buffer, opts Options) *Dashboard {
	tail := NewTailView(buf, opts.MaxLogLines)
	d := &Dashboard{
		terminal:      NewTerminal(out),
		tab:           opts.Tab,
		state:         ViewState{Models: inference.Catalog},
		editor:        NewLineEditor(),
		tail:          tail,
		toaster:       NewToaster(nil, opts.ToastLimit),
		width:         80,
		height:        24,
		actionCh:      make(chan ActionEvent, 10),
		inferenceView: &InferenceView{},
		trainingView:  &TrainingView{tail: tail},
		datasetView:   &DatasetView{},
		profileView:   &ProfileView{},
	}
	return d
}

// Tab returns the active tab.
func (d *Dashboard) Tab() Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tab
}

// SetTab switches tabs.
func (d *Dashboard) SetTab(t Tab) {
	d.mu.Lock()
	d.tab = t
	d.mu.Unlock()
	d.Update()
}

// State returns a copy of the view state.
func (d *Dashboard) State() ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetProfile sets the account shown on the profile tab.
func (d *Dashboard) SetProfile(p *api.Profile) {
	d.update(func(s *ViewState) { s.Profile = p })
}

// SetLoadedModel marks a catalog model as loaded.
func (d *Dashboard) SetLoadedModel(id string) {
	d.update(func(s *ViewState) { s.LoadedModel = id })
}

// SetLastSpeech sets the line describing the last synthesis result.
func (d *Dashboard) SetLastSpeech(text string) {
	d.update(func(s *ViewState) { s.LastSpeech = text })
}

// SetTraining updates the training status block.
func (d *Dashboard) SetTraining(active bool, dataset string, epochs int) {
	d.update(func(s *ViewState) {
		s.TrainingActive = active
		s.TrainingDataset = dataset
		s.TrainingEpochs = epochs
	})
}

// SetDataset updates the dataset tab.
func (d *Dashboard) SetDataset(stage string, fs []files.Descriptor, totalSize string) {
	d.update(func(s *ViewState) {
		s.DatasetStage = stage
		s.Files = fs
		s.TotalSize = totalSize
	})
}

func (d *Dashboard) update(fn func(*ViewState)) {
	d.mu.Lock()
	fn(&d.state)
	d.mu.Unlock()
	d.Update()
}

// Notify records a toast and redraws. Destructive notices ring the bell.
func (d *Dashboard) Notify(n notify.Notice) {
	d.toaster.Notify(n)
	if n.Kind == notify.KindDestructive && d.IsRunning() {
		d.terminal.RingBell()
	}
	d.Update()
}

// Toasts returns the notices currently on screen.
func (d *Dashboard) Toasts() []notify.Notice {
	return d.toaster.Recent()
}

// Actions returns the channel of user actions.
func (d *Dashboard) Actions() <-chan ActionEvent {
	return d.actionCh
}

// Render returns the full frame for the given size.
func (d *Dashboard) Render(width, height int) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.renderLocked(width, height)
}

func (d *Dashboard) renderLocked(width, height int) []string {
	lines := []string{
		TitleStyle.Render("ttsdash") + userLabel(d.state.Profile),
		TabBar(d.tab, width),
		"",
	}

	toasts := d.toaster.Recent()
	bodyHeight := max(5, height-len(lines)-len(toasts)-2)

	switch d.tab {
	case TabInference:
		lines = append(lines, d.inferenceView.Render(d.state, d.inputLine(), width)...)
	case TabTraining:
		lines = append(lines, d.trainingView.Render(d.state, width, bodyHeight)...)
	case TabDataset:
		lines = append(lines, d.datasetView.Render(d.state, width)...)
	case TabProfile:
		lines = append(lines, d.profileView.Render(d.state, width)...)
	default:
		panic(fmt.Sprintf("tui: unhandled tab %d", int(d.tab)))
	}

	if len(toasts) > 0 {
		lines = append(lines, "")
		for _, n := range toasts {
			lines = append(lines, RenderToast(n))
		}
	}
	lines = append(lines, "", MutedStyle.Render("[tab]/[1-4] switch  [q]uit"))
	return lines
}

func (d *Dashboard) inputLine() string {
	text := d.editor.Text()
	if d.editing {
		return text + "█"
	}
	if text == "" {
		return MutedStyle.Render("press e to type")
	}
	return text
}

func userLabel(p *api.Profile) string {
	if p == nil || p.Email == "" {
		return ""
	}
	return MutedStyle.Render(" · " + p.Email)
}

// Update redraws the screen while the dashboard is running.
func (d *Dashboard) Update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	if w, h, err := d.terminal.Size(); err == nil {
		d.width, d.height = w, h
	}

	d.terminal.Clear()
	d.terminal.HideCursor()
	d.terminal.WriteLines(d.renderLocked(d.width, d.height))
}

// IsRunning reports whether Run is active.
func (d *Dashboard) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Run puts the terminal in raw mode and processes keys until ctx is
// cancelled or the user quits. The tailed buffer triggers redraws.
func (d *Dashboard) Run(ctx context.Context, buf *logstream.Buffer) error {
	if err := d.terminal.EnterRaw(); err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer d.terminal.ExitRaw()
	defer d.terminal.ShowCursor()

	d.mu.Lock()
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	unsubscribe := buf.Subscribe(d.Update)
	defer unsubscribe()

	d.Update()

	keys := NewKeyReader(d.terminal)
	keyCh := make(chan KeyEvent, 10)
	keyErr := make(chan error, 1)
	go func() {
		for {
			ev, err := keys.ReadKey()
			if err != nil {
				keyErr <- err
				return
			}
			select {
			case keyCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-keyErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err

		case ev := <-keyCh:
			action := d.handleKey(ev)
			d.Update()
			if action.Action == ActionNone {
				continue
			}
			select {
			case d.actionCh <- action:
			default:
			}
			if action.Action == ActionQuit {
				return nil
			}
		}
	}
}

// handleKey applies a key press to the dashboard and returns the action it
// requests, if any.
func (d *Dashboard) handleKey(ev KeyEvent) ActionEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.editing {
		return d.handleEditKey(ev)
	}

	switch ParseShortcut(ev) {
	case ShortcutNextTab:
		d.tab = d.tab.Next()
	case ShortcutPrevTab:
		d.tab = d.tab.Prev()
	case ShortcutJump:
		if t, ok := JumpTarget(ev); ok {
			d.tab = t
		}
	case ShortcutUp:
		d.move(-1)
	case ShortcutDown:
		d.move(1)
	case ShortcutFollow:
		if d.tab == TabTraining {
			d.tail.Follow()
		}
	case ShortcutEdit:
		if d.tab == TabInference {
			d.editing = true
		}
	case ShortcutLoad:
		if m, ok := d.state.SelectedModel(); ok && d.tab == TabInference {
			return ActionEvent{Action: ActionLoadModel, Model: m.ID}
		}
	case ShortcutSubmit:
		if d.tab == TabInference {
			return d.synthesizeAction()
		}
	case ShortcutStop:
		if d.tab == TabTraining {
			return ActionEvent{Action: ActionStopTraining}
		}
	case ShortcutQuit:
		return ActionEvent{Action: ActionQuit}
	}
	return ActionEvent{Action: ActionNone}
}

func (d *Dashboard) handleEditKey(ev KeyEvent) ActionEvent {
	switch ev.Key {
	case KeyEscape:
		d.editing = false
		return ActionEvent{Action: ActionNone}
	case KeyCtrlC:
		return ActionEvent{Action: ActionQuit}
	}
	if d.editor.HandleKey(ev) {
		d.editing = false
		return d.synthesizeAction()
	}
	return ActionEvent{Action: ActionNone}
}

func (d *Dashboard) synthesizeAction() ActionEvent {
	return ActionEvent{
		Action: ActionSynthesize,
		Model:  d.state.LoadedModel,
		Text:   d.editor.Text(),
	}
}

func (d *Dashboard) move(delta int) {
	switch d.tab {
	case TabInference:
		n := len(d.state.Models)
		if n == 0 {
			return
		}
		d.state.Selected = min(max(d.state.Selected+delta, 0), n-1)
	case TabTraining:
		if delta < 0 {
			d.tail.ScrollUp(-delta)
		} else {
			d.tail.ScrollDown(delta)
		}
	case TabDataset, TabProfile:
	}
}
