package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/logging"
	"github.com/thruflo/ttsdash/internal/notify"
)

var (
	// ErrNoModel is returned by Synthesize before a model has been loaded.
	ErrNoModel = errors.New("no model loaded")

	// ErrEmptyText is returned by Synthesize for blank input.
	ErrEmptyText = errors.New("no text provided")
)

// Client is the backend surface used for inference.
type Client interface {
	LoadModel(ctx context.Context, model string) (*api.MessageResponse, error)
	Synthesize(ctx context.Context, model, text string) ([]byte, error)
}

// Speech is one synthesis result.
type Speech struct {
	Model Model
	Text  string
	Audio []byte
	Info  WAVInfo
}

// Service tracks the loaded model and performs synthesis.
type Service struct {
	client Client
	sink   notify.Sink
	logger *logging.Logger
	now    func() time.Time

	mu     sync.Mutex
	loaded *Model
}

// NewService creates a Service with no model loaded.
func NewService(client Client, sink notify.Sink) *Service {
	if sink == nil {
		sink = notify.Discard
	}
	return &Service{
		client: client,
		sink:   sink,
		logger: logging.With("component", "inference"),
		now:    time.Now,
	}
}

// Loaded returns the loaded model, if any.
func (s *Service) Loaded() (Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == nil {
		return Model{}, false
	}
	return *s.loaded, true
}

// Load asks the backend to load the catalog model id.
func (s *Service) Load(ctx context.Context, id string) (Model, error) {
	if id == "" {
		s.sink.Notify(notify.Destructive("No model selected", "Please select a model first."))
		return Model{}, fmt.Errorf("%w: empty id", ErrUnknownModel)
	}
	m, err := Lookup(id)
	if err != nil {
		s.sink.Notify(notify.Destructive("Unknown model", err.Error()))
		return Model{}, err
	}

	if _, err := s.client.LoadModel(ctx, m.ID); err != nil {
		s.sink.Notify(notify.Destructive("Failed to load model", api.Message(err, "Something went wrong while loading the model.")))
		return Model{}, fmt.Errorf("failed to load %s: %w", m.ID, err)
	}

	s.mu.Lock()
	s.loaded = &m
	s.mu.Unlock()

	s.logger.Info("model loaded", "model", m.ID)
	s.sink.Notify(notify.Success("Model loaded successfully", m.Name+" is ready for inference."))
	return m, nil
}

// Synthesize converts text to speech with the loaded model.
func (s *Service) Synthesize(ctx context.Context, text string) (*Speech, error) {
	if strings.TrimSpace(text) == "" {
		s.sink.Notify(notify.Destructive("No text provided", "Please enter some text to synthesize."))
		return nil, ErrEmptyText
	}
	m, ok := s.Loaded()
	if !ok {
		s.sink.Notify(notify.Destructive("No model loaded", "Please load a model first."))
		return nil, ErrNoModel
	}

	audio, err := s.client.Synthesize(ctx, m.ID, text)
	if err != nil {
		s.sink.Notify(notify.Destructive("Synthesis failed", api.Message(err, "Something went wrong while generating audio.")))
		return nil, fmt.Errorf("failed to synthesize: %w", err)
	}

	info, err := ParseWAV(audio)
	if err != nil {
		s.sink.Notify(notify.Destructive("Synthesis failed", "The server returned audio that could not be read."))
		return nil, err
	}

	s.logger.Debug("speech synthesized", "model", m.ID, "bytes", len(audio), "duration", info.Duration())
	s.sink.Notify(notify.Success("Audio generated successfully", "Your speech synthesis is ready!"))
	return &Speech{Model: m, Text: text, Audio: audio, Info: info}, nil
}

// Save writes speech to dir as "<model>-<timestamp>.wav" and returns the
// path.
func (s *Service) Save(sp *Speech, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.wav", sp.Model.ID, s.now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, sp.Audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
