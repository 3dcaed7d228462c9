package application

import (
	"context"
	"io"

	"farm-voice/internal/domain"
)

// AudioStore uploads a synthesized response and returns a public URL.
// Returning domain.ErrStorageDisabled means no backend is configured; the
// assistant treats that as expected, not as an error.
type AudioStore interface {
	Store(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

type NoopAudioStore struct{}

func (n *NoopAudioStore) Store(_ context.Context, _, _ string, _ io.Reader) (string, error) {
	return "", domain.ErrStorageDisabled
}
