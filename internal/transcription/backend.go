// Package transcription routes meeting audio to a speech-to-text backend
// chosen from an ordered capacity/availability table.
package transcription

import (
	"context"

	"meeting-insights-go/internal/config"
	"meeting-insights-go/internal/logger"
	"meeting-insights-go/internal/types"
)

// Options are passed through to the backend.
type Options struct {
	// Translate asks the backend for English text whatever the spoken language.
	Translate bool
}

// Backend is a speech-to-text provider.
type Backend interface {
	Name() string
	MaxInputSize() int64
	IsAvailable() bool
	Transcribe(ctx context.Context, audio types.AudioInput, opts Options) (*types.TranscriptionResult, error)
}

// BackendsFromConfig returns the backends in routing priority order: the
// fast Whisper backend first, the large-file backend after it. Mock mode
// replaces both with a single offline backend.
func BackendsFromConfig(cfg config.Config, log *logger.Logger) []Backend {
	if cfg.Mock.Transcribe {
		return []Backend{NewMock()}
	}
	return []Backend{
		NewWhisper(cfg.Groq),
		NewAssemblyAI(cfg.AssemblyAI, log),
	}
}
