package application

import (
	"context"
	"fmt"

	"farm-voice/internal/domain"
)

// Translator translates text between two language tags.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// NoopTranslator always fails, so both directions use the marker rules.
type NoopTranslator struct{}

func (n *NoopTranslator) Translate(_ context.Context, _, _, _ string) (string, error) {
	return "", fmt.Errorf("translation: %w", domain.ErrNotConfigured)
}
