package wizard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/notify"
)

type stage int

const (
	stageA stage = iota
	stageB
	stageC
)

func (s stage) String() string {
	switch s {
	case stageA:
		return "a"
	case stageB:
		return "b"
	case stageC:
		return "c"
	default:
		return "unknown"
	}
}

type fakeCall struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (f *fakeCall) submit(ctx context.Context, _ Fields) (notify.Notice, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return notify.Notice{}, f.err
	}
	return notify.Success("ok", ""), nil
}

func twoStep(t *testing.T, a, b *fakeCall) *Wizard[stage] {
	t.Helper()
	w, err := New("test", stageA, stageC,
		Step[stage]{
			Stage: stageA, Next: stageB, Carry: []string{"keep"},
			Validate: func(f Fields) error {
				if f["required"] == "" {
					return &ValidationError{Field: "required", Title: "Missing", Message: "required is empty"}
				}
				return nil
			},
			Submit: a.submit, FailureTitle: "A failed", Fallback: "generic a",
		},
		Step[stage]{Stage: stageB, Next: stageC, Submit: b.submit, FailureTitle: "B failed", Fallback: "generic b"},
	)
	require.NoError(t, err)
	return w
}

func TestAdvancesOnlyOnSuccess(t *testing.T) {
	t.Parallel()
	a := &fakeCall{err: &api.APIError{Status: 400, Detail: "backend says no"}}
	w := twoStep(t, a, &fakeCall{})
	ctx := context.Background()

	got, _, err := w.SubmitStage(ctx, stageA, Fields{"required": "x", "keep": "k", "drop": "d"})
	assert.Equal(t, stageA, got)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "backend says no", re.Message)
	assert.Equal(t, "A failed", re.Title)
	assert.Equal(t, "a", re.Stage)
	assert.False(t, w.State().Busy, "busy is cleared for retry")
	assert.Equal(t, "d", w.Get("drop"), "inputs survive a failure")

	a.err = nil
	got, notice, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, stageB, got)
	assert.Equal(t, "ok", notice.Title)
	assert.Equal(t, Fields{"keep": "k"}, w.State().Fields, "only carried fields survive")
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestFallbackMessageWithoutDetail(t *testing.T) {
	t.Parallel()
	a := &fakeCall{err: errors.New("connection refused")}
	w := twoStep(t, a, &fakeCall{})

	_, _, err := w.SubmitStage(context.Background(), stageA, Fields{"required": "x"})
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "generic a", re.Message)
	assert.ErrorContains(t, err, "generic a")
	assert.Equal(t, "A failed", FailureNotice(err).Title)
}

func TestValidationMakesNoCall(t *testing.T) {
	t.Parallel()
	a := &fakeCall{}
	w := twoStep(t, a, &fakeCall{})

	_, _, err := w.Submit(context.Background())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Field)
	assert.Equal(t, int32(0), a.calls.Load())
	assert.Equal(t, stageA, w.Stage())
	assert.Equal(t, notify.KindDestructive, FailureNotice(err).Kind)
}

func TestNoSkippingStages(t *testing.T) {
	t.Parallel()
	b := &fakeCall{}
	w := twoStep(t, &fakeCall{}, b)

	got, _, err := w.SubmitStage(context.Background(), stageB, nil)
	assert.ErrorIs(t, err, ErrWrongStage)
	assert.Equal(t, stageA, got)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestDuplicateSubmitRejectedWhileBusy(t *testing.T) {
	t.Parallel()
	a := &fakeCall{block: make(chan struct{})}
	w := twoStep(t, a, &fakeCall{})
	require.NoError(t, w.Set("required", "x"))

	done := make(chan error, 1)
	go func() {
		_, _, err := w.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return w.State().Busy }, time.Second, time.Millisecond)

	_, _, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, w.Set("required", "y"), ErrBusy)
	assert.ErrorIs(t, w.Reset(), ErrBusy)

	close(a.block)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, stageB, w.Stage())
}

func TestBackExits(t *testing.T) {
	t.Parallel()
	a := &fakeCall{}
	w := twoStep(t, a, &fakeCall{})

	w.Back()
	_, _, err := w.SubmitStage(context.Background(), stageA, Fields{"required": "x"})
	assert.ErrorIs(t, err, ErrExited)
	assert.True(t, w.State().Exited)
	assert.Equal(t, int32(0), a.calls.Load())

	require.NoError(t, w.Reset())
	assert.False(t, w.State().Exited)
}

func TestBackDuringSubmitDoesNotAdvance(t *testing.T) {
	t.Parallel()
	a := &fakeCall{block: make(chan struct{})}
	w := twoStep(t, a, &fakeCall{})
	require.NoError(t, w.Set("required", "x"))

	type result struct {
		stage stage
		err   error
	}
	done := make(chan result, 1)
	go func() {
		got, _, err := w.Submit(context.Background())
		done <- result{got, err}
	}()

	require.Eventually(t, func() bool { return w.State().Busy }, time.Second, time.Millisecond)
	w.Back()
	close(a.block)

	res := <-done
	assert.ErrorIs(t, res.err, ErrExited)
	assert.Equal(t, stageA, res.stage)
	assert.Equal(t, stageA, w.Stage())
	assert.True(t, w.State().Exited)
	assert.False(t, w.State().Busy)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestCompleteWizardRejectsSubmit(t *testing.T) {
	t.Parallel()
	w := twoStep(t, &fakeCall{}, &fakeCall{})
	ctx := context.Background()

	_, _, err := w.SubmitStage(ctx, stageA, Fields{"required": "x"})
	require.NoError(t, err)
	_, _, err = w.Submit(ctx)
	require.NoError(t, err)
	assert.True(t, w.Done())

	_, _, err = w.Submit(ctx)
	assert.ErrorIs(t, err, ErrComplete)
}

func TestNewRejectsBrokenChains(t *testing.T) {
	t.Parallel()
	noop := (&fakeCall{}).submit

	_, err := New("missing", stageA, stageC, Step[stage]{Stage: stageA, Next: stageB, Submit: noop})
	assert.ErrorContains(t, err, "no step for stage b")

	_, err = New("loop", stageA, stageC,
		Step[stage]{Stage: stageA, Next: stageB, Submit: noop},
		Step[stage]{Stage: stageB, Next: stageA, Submit: noop},
	)
	assert.ErrorContains(t, err, "visited twice")

	_, err = New("dup", stageA, stageB,
		Step[stage]{Stage: stageA, Next: stageB, Submit: noop},
		Step[stage]{Stage: stageA, Next: stageB, Submit: noop},
	)
	assert.ErrorContains(t, err, "duplicate stage")

	_, err = New("nosubmit", stageA, stageB, Step[stage]{Stage: stageA, Next: stageB})
	assert.ErrorContains(t, err, "no submit action")
}

func TestStageNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "reset", ResetPassword.String())
	assert.Equal(t, "otp", ProfileOTP.String())
	assert.Equal(t, "name-model", DatasetName.String())
	assert.Equal(t, "unknown", DatasetStage(9).String())
	assert.NotEmpty(t, ResetOTP.Heading())
}
