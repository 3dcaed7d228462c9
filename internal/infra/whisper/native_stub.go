//go:build !whispercpp

package whisper

import (
	"context"
	"errors"
	"log/slog"

	"farm-voice/internal/domain"
)

// Native stub when the whisper.cpp bindings are not compiled in.
type Native struct{}

func NewNative(_ string, _ int, _ *slog.Logger) (*Native, error) {
	return nil, errors.New("whisper: in-process transcription not available: rebuild with -tags whispercpp")
}

func (n *Native) Close() error {
	return nil
}

func (n *Native) Transcribe(_ context.Context, _ *domain.AudioClip, _ string) (string, error) {
	return "", errors.New("whisper: in-process transcription not available")
}
