package application

import (
	"context"
	"fmt"

	"farm-voice/internal/domain"
)

// Transcriber turns a spoken clip into text in the given language.
// Implementations must fail cleanly on garbage audio instead of hanging.
type Transcriber interface {
	Transcribe(ctx context.Context, clip *domain.AudioClip, language string) (string, error)
}

// Synthesizer turns text into spoken audio in the given language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (*domain.SynthesizedAudio, error)
}

// NoopTranscriber is used when no speech-to-text provider is configured.
// Every call fails, which sends the pipeline down the fallback transcript path.
type NoopTranscriber struct{}

func (n *NoopTranscriber) Transcribe(_ context.Context, _ *domain.AudioClip, _ string) (string, error) {
	return "", fmt.Errorf("speech-to-text: %w", domain.ErrNotConfigured)
}

// NoopSynthesizer is used when spoken responses are disabled.
type NoopSynthesizer struct{}

func (n *NoopSynthesizer) Synthesize(_ context.Context, _, _ string) (*domain.SynthesizedAudio, error) {
	return nil, fmt.Errorf("text-to-speech: %w", domain.ErrNotConfigured)
}
