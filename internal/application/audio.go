package application

import (
	"context"
	"fmt"
)

// AudioSource yields recorded queries for the command-line runner.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}

// AudioFormat is the PCM layout live sources capture in.
type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultAudioFormat is 16 kHz mono 16-bit, which every transcriber takes
// without resampling.
func DefaultAudioFormat() AudioFormat {
	return AudioFormat{SampleRate: 16000, Channels: 1, BitDepth: 16}
}

// Validate rejects layouts the capture path cannot encode as WAV.
func (f AudioFormat) Validate() error {
	switch {
	case f.SampleRate < 8000 || f.SampleRate > 48000:
		return fmt.Errorf("sample rate %d Hz outside 8000-48000", f.SampleRate)
	case f.Channels != 1:
		return fmt.Errorf("%d channels requested, capture is mono only", f.Channels)
	case f.BitDepth != 16:
		return fmt.Errorf("%d-bit samples requested, capture is 16-bit only", f.BitDepth)
	}
	return nil
}
