// Package training starts model training runs and follows their logs.
package training

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/config"
	"github.com/thruflo/ttsdash/internal/logging"
	"github.com/thruflo/ttsdash/internal/logstream"
	"github.com/thruflo/ttsdash/internal/notify"
)

// StoppedMessage is appended to the log when the user stops training.
const StoppedMessage = "Training stopped by user."

var (
	ErrAlreadyActive    = errors.New("training is already active")
	ErrNotActive        = errors.New("training is not active")
	ErrStoppedEarly     = errors.New("training was stopped before it started")
	ErrDatasetRequired  = errors.New("no dataset selected")
	ErrEpochsOutOfRange = fmt.Errorf("epochs must be between %d and %d", config.MinEpochs, config.MaxEpochs)
)

// Client is the backend surface used to start training.
type Client interface {
	StartTraining(ctx context.Context, req api.TrainStartRequest) (*api.TrainStartResponse, error)
}

// ValidateRequest checks a request before anything is sent.
func ValidateRequest(req api.TrainStartRequest) error {
	if strings.TrimSpace(req.Dataset) == "" {
		return ErrDatasetRequired
	}
	if req.Epochs < config.MinEpochs || req.Epochs > config.MaxEpochs {
		return fmt.Errorf("%w: got %d", ErrEpochsOutOfRange, req.Epochs)
	}
	return nil
}

// Options configures a Controller.
type Options struct {
	// StreamURL is the full ws:// URL of the train-logs socket.
	StreamURL string
	Header    http.Header
	Dialer    *websocket.Dialer
	Sink      notify.Sink
	Logger    *logging.Logger
}

// Controller owns the "training active" flag. Activating opens the log
// stream and asks the backend to start; the two are independent calls with
// no shared identifier.
type Controller struct {
	client Client
	buf    *logstream.Buffer
	opts   Options
	sink   notify.Sink
	logger *logging.Logger

	mu     sync.Mutex
	active bool
	run    uint64 // incremented by every Start
	stream *logstream.Stream
}

// NewController creates a Controller writing log lines into buf.
func NewController(client Client, buf *logstream.Buffer, opts Options) *Controller {
	sink := opts.Sink
	if sink == nil {
		sink = notify.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.With("component", "training")
	}
	return &Controller{client: client, buf: buf, opts: opts, sink: sink, logger: logger}
}

// Buffer returns the log buffer.
func (c *Controller) Buffer() *logstream.Buffer {
	return c.buf
}

// Active reports whether training is active.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Start activates training. The log buffer is cleared and the stream
// opened before the start request is sent so no early line is missed. A
// stream that cannot connect is reported once and training still starts.
// A failed start deactivates and closes the stream. If Stop runs while the
// stream is connecting, the stream is closed, no start request is sent and
// ErrStoppedEarly is returned.
func (c *Controller) Start(ctx context.Context, req api.TrainStartRequest) error {
	if err := ValidateRequest(req); err != nil {
		if errors.Is(err, ErrDatasetRequired) {
			c.sink.Notify(notify.Destructive("No dataset selected", "Please select a dataset first."))
		} else {
			c.sink.Notify(notify.Destructive("Invalid epochs", err.Error()))
		}
		return err
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.active = true
	c.run++
	run := c.run
	c.mu.Unlock()

	log := c.logger.WithFields(map[string]interface{}{"dataset": req.Dataset, "epochs": req.Epochs})

	stream, err := logstream.Start(ctx, c.opts.StreamURL, c.buf, logstream.Options{
		Header:  c.opts.Header,
		Dialer:  c.opts.Dialer,
		Logger:  log,
		OnError: func(error) { c.notifyStreamError() },
	})
	if err != nil {
		log.Warn("train-logs connection failed", "error", err)
		c.notifyStreamError()
	}

	// Stop may have run while the stream was connecting.
	c.mu.Lock()
	stopped := !c.active || c.run != run
	if !stopped && stream != nil {
		c.stream = stream
	}
	c.mu.Unlock()
	if stopped {
		if stream != nil {
			stream.Stop()
		}
		log.Info("training stopped before start request")
		return ErrStoppedEarly
	}

	if _, err := c.client.StartTraining(ctx, req); err != nil {
		c.sink.Notify(notify.Destructive("Error starting training", api.Message(err, "Failed to start training")))
		c.deactivate()
		return fmt.Errorf("failed to start training: %w", err)
	}

	log.Info("training started")
	c.sink.Notify(notify.Success("Training started",
		fmt.Sprintf("Training on %s for %d epochs.", req.Dataset, req.Epochs)))
	return nil
}

func (c *Controller) notifyStreamError() {
	c.sink.Notify(notify.Destructive("WebSocket Error", "Failed to connect to training log server."))
}

// Stop deactivates training at the user's request: the socket is closed
// and StoppedMessage is appended after the last streamed line.
func (c *Controller) Stop() error {
	if !c.deactivate() {
		return ErrNotActive
	}
	c.buf.Append(StoppedMessage)
	c.sink.Notify(notify.Info("Training stopped", "Model training has been interrupted."))
	return nil
}

// Close tears the controller down without a stop message. It is safe to
// call when inactive.
func (c *Controller) Close() {
	c.deactivate()
}

// deactivate clears the flag and stops the stream. It reports whether
// training was active.
func (c *Controller) deactivate() bool {
	c.mu.Lock()
	wasActive := c.active
	stream := c.stream
	c.active = false
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	return wasActive
}

// Done is closed when the current log stream ends. It is closed
// immediately when no stream is open.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.stream.Done()
}
