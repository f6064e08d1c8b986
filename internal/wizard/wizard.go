// Package wizard implements multi-step verification flows: a fixed sequence
// of stages, each owning its inputs and one backend call, that advances only
// after the call succeeds.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/logging"
	"github.com/thruflo/ttsdash/internal/notify"
)

// Fields holds the input values of the active stage, keyed by field name.
type Fields map[string]string

func (f Fields) clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Step defines one stage of a wizard.
type Step[S comparable] struct {
	Stage S
	Next  S

	// Carry names the fields kept when advancing to Next. All other fields
	// are cleared.
	Carry []string

	// Validate runs before any request. A *ValidationError keeps the stage.
	Validate func(Fields) error

	// Submit performs the stage's backend call and returns the success
	// notice to show.
	Submit func(ctx context.Context, f Fields) (notify.Notice, error)

	// FailureTitle and Fallback describe a failed call when the backend
	// gave no detail.
	FailureTitle string
	Fallback     string
}

// State is a snapshot of a wizard.
type State[S comparable] struct {
	Stage  S
	Fields Fields
	Busy   bool
	Exited bool
}

// Wizard drives a sequence of steps. It is safe for concurrent use; the
// lock is not held during a submit's network call.
type Wizard[S comparable] struct {
	name   string
	first  S
	final  S
	steps  map[S]Step[S]
	logger *logging.Logger

	mu     sync.Mutex
	stage  S
	fields Fields
	busy   bool
	exited bool
}

// New creates a wizard starting at first and finishing at final. Every
// stage reachable from first must have a step, and the chain must reach
// final without revisiting a stage.
func New[S comparable](name string, first, final S, steps ...Step[S]) (*Wizard[S], error) {
	byStage := make(map[S]Step[S], len(steps))
	for _, st := range steps {
		if st.Submit == nil {
			return nil, fmt.Errorf("wizard %s: stage %v has no submit action", name, st.Stage)
		}
		if _, dup := byStage[st.Stage]; dup {
			return nil, fmt.Errorf("wizard %s: duplicate stage %v", name, st.Stage)
		}
		byStage[st.Stage] = st
	}

	seen := make(map[S]bool)
	for s := first; s != final; {
		if seen[s] {
			return nil, fmt.Errorf("wizard %s: stage %v is visited twice", name, s)
		}
		seen[s] = true
		st, ok := byStage[s]
		if !ok {
			return nil, fmt.Errorf("wizard %s: no step for stage %v", name, s)
		}
		s = st.Next
	}

	return &Wizard[S]{
		name:   name,
		first:  first,
		final:  final,
		steps:  byStage,
		logger: logging.With("wizard", name),
		stage:  first,
		fields: make(Fields),
	}, nil
}

// MustNew is New for statically defined wizards; it panics on error.
func MustNew[S comparable](name string, first, final S, steps ...Step[S]) *Wizard[S] {
	w, err := New(name, first, final, steps...)
	if err != nil {
		panic(err)
	}
	return w
}

// Name returns the wizard's name.
func (w *Wizard[S]) Name() string {
	return w.name
}

// State returns a snapshot.
func (w *Wizard[S]) State() State[S] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State[S]{Stage: w.stage, Fields: w.fields.clone(), Busy: w.busy, Exited: w.exited}
}

// Stage returns the active stage.
func (w *Wizard[S]) Stage() S {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Done reports whether the final stage has been reached.
func (w *Wizard[S]) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage == w.final
}

// Set updates one input field of the active stage.
func (w *Wizard[S]) Set(key, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkLocked(); err != nil {
		return err
	}
	w.fields[key] = value
	return nil
}

// Get returns the current value of a field.
func (w *Wizard[S]) Get(key string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fields[key]
}

func (w *Wizard[S]) checkLocked() error {
	switch {
	case w.exited:
		return ErrExited
	case w.busy:
		return ErrBusy
	case w.stage == w.final:
		return ErrComplete
	}
	return nil
}

// SubmitStage merges fields into the inputs of stage and submits it. stage
// must be the active stage.
func (w *Wizard[S]) SubmitStage(ctx context.Context, stage S, fields Fields) (S, notify.Notice, error) {
	w.mu.Lock()
	if err := w.checkLocked(); err != nil {
		cur := w.stage
		w.mu.Unlock()
		return cur, notify.Notice{}, err
	}
	if stage != w.stage {
		cur := w.stage
		w.mu.Unlock()
		return cur, notify.Notice{}, fmt.Errorf("%w: %v (active: %v)", ErrWrongStage, stage, cur)
	}
	for k, v := range fields {
		w.fields[k] = v
	}
	w.mu.Unlock()

	return w.Submit(ctx)
}

// Submit validates and submits the active stage. On success the wizard
// advances to the step's Next stage and the returned notice describes the
// success. On failure, or when Back was called while the request was in
// flight, the stage is unchanged and the error is
// *ValidationError, *RequestError, ErrBusy, ErrExited or ErrComplete.
func (w *Wizard[S]) Submit(ctx context.Context) (S, notify.Notice, error) {
	w.mu.Lock()
	if err := w.checkLocked(); err != nil {
		cur := w.stage
		w.mu.Unlock()
		return cur, notify.Notice{}, err
	}

	stage := w.stage
	step := w.steps[stage]
	input := w.fields.clone()

	if step.Validate != nil {
		if err := step.Validate(input); err != nil {
			w.mu.Unlock()
			return stage, notify.Notice{}, err
		}
	}
	w.busy = true
	w.mu.Unlock()

	log := w.logger.With("stage", stage)
	log.Debug("submitting stage")

	notice, err := step.Submit(ctx, input)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false

	if err != nil {
		log.Warn("stage failed", "error", err)
		return stage, notify.Notice{}, &RequestError{
			Stage:   fmt.Sprint(stage),
			Title:   step.FailureTitle,
			Message: api.Message(err, step.Fallback),
			Err:     err,
		}
	}

	if w.exited {
		log.Info("stage completed after exit; discarded")
		return stage, notice, ErrExited
	}

	next := make(Fields, len(step.Carry))
	for _, k := range step.Carry {
		if v, ok := w.fields[k]; ok {
			next[k] = v
		}
	}
	w.fields = next
	w.stage = step.Next

	log.Info("stage complete", "next", step.Next)
	return step.Next, notice, nil
}

// Back exits the wizard. Later submits fail with ErrExited, and a submit
// still in flight does not advance the stage when it returns.
func (w *Wizard[S]) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.exited = true
	w.fields = make(Fields)
}

// Reset returns an idle wizard to its first stage with empty fields.
func (w *Wizard[S]) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	w.stage = w.first
	w.fields = make(Fields)
	w.exited = false
	return nil
}

// FailureNotice converts an error returned by Submit into a toast.
func FailureNotice(err error) notify.Notice {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return notify.Destructive(ve.Title, ve.Message)
	}
	var re *RequestError
	if errors.As(err, &re) {
		return notify.Destructive(re.Title, re.Message)
	}
	return notify.Destructive("Error", err.Error())
}
