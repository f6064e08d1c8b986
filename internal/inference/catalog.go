// Package inference loads TTS models on the backend and saves the speech
// they synthesize.
package inference

import (
	"errors"
	"fmt"
)

// ErrUnknownModel is returned for a model id outside the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Model is a selectable inference model.
type Model struct {
	ID          string
	Name        string
	Description string
}

// Catalog lists the models an operator can select, in display order.
var Catalog = []Model{
	{ID: "xtts-v2", Name: "XTTSv2", Description: "High-quality multilingual TTS"},
	{ID: "your-tts", Name: "YourTTS", Description: "Voice cloning TTS model"},
	{ID: "tacotron2", Name: "Tacotron 2", Description: "Neural TTS with WaveGlow"},
	{ID: "fastspeech2", Name: "FastSpeech 2", Description: "Fast and robust TTS"},
}

// Lookup finds a catalog model by id.
func Lookup(id string) (Model, error) {
	for _, m := range Catalog {
		if m.ID == id {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}
