package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a submit is attempted while the previous
	// request for the stage is still in flight.
	ErrBusy = errors.New("request already in progress")

	// ErrExited is returned for any submit after Back.
	ErrExited = errors.New("wizard has been exited")

	// ErrComplete is returned for a submit after the final stage.
	ErrComplete = errors.New("wizard is already complete")

	// ErrWrongStage is returned when a submit names a stage other than the
	// active one.
	ErrWrongStage = errors.New("stage is not active")
)

// ValidationError is a client-side input error. No request was made.
type ValidationError struct {
	Field string
	Title string
	// Message is suitable for display.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RequestError is a failed stage submission. The wizard stays on Stage.
type RequestError struct {
	Stage string
	Title string
	// Message is the backend's detail when present, else the stage's
	// generic failure message.
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
