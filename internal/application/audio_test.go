package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"farm-voice/internal/application"
)

func TestAudioFormat_Validate(t *testing.T) {
	assert.NoError(t, application.DefaultAudioFormat().Validate())

	bad := []application.AudioFormat{
		{SampleRate: 4000, Channels: 1, BitDepth: 16},
		{SampleRate: 96000, Channels: 1, BitDepth: 16},
		{SampleRate: 16000, Channels: 2, BitDepth: 16},
		{SampleRate: 16000, Channels: 1, BitDepth: 24},
	}
	for _, f := range bad {
		assert.Error(t, f.Validate(), "%+v", f)
	}
}
