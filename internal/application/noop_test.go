package application_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"farm-voice/internal/application"
	"farm-voice/internal/domain"
)

func TestNoopCapabilities(t *testing.T) {
	ctx := context.Background()

	_, err := (&application.NoopTranscriber{}).Transcribe(ctx, &domain.AudioClip{}, "zu")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = (&application.NoopTranslator{}).Translate(ctx, "x", "en", "zu")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = (&application.NoopSynthesizer{}).Synthesize(ctx, "x", "zu")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = (&application.NoopAudioStore{}).Store(ctx, "audio/a.mp3", "audio/mpeg", bytes.NewReader(nil))
	assert.ErrorIs(t, err, domain.ErrStorageDisabled)
}
