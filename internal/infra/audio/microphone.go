//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gordonklaus/portaudio"

	"farm-voice/internal/application"
	"farm-voice/internal/infra/audioconv"
)

const framesPerBuffer = 1024

// MicrophoneSource records one spoken query at a time from the default
// input device. A query ends after a second of silence or ten seconds.
type MicrophoneSource struct {
	stream     *portaudio.Stream
	frame      []int16
	format     application.AudioFormat
	sampleRate int
	tempDir    string
	logger     *slog.Logger
}

func NewMicrophoneSource(format application.AudioFormat, tempDir string, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		format:     format,
		sampleRate: format.SampleRate,
		tempDir:    tempDir,
		logger:     logger,
		frame:      make([]int16, framesPerBuffer*max(format.Channels, 1)),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := m.format.Validate(); err != nil {
		return fmt.Errorf("microphone format: %w", err)
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(m.format.Channels, 0, float64(m.sampleRate), framesPerBuffer, m.frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	m.stream = stream

	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started",
		"sample_rate", m.format.SampleRate,
		"channels", m.format.Channels,
		"bit_depth", m.format.BitDepth,
	)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
	}
	portaudio.Terminate()
	return nil
}

// NextCommand returns the recorded query as a wav file.
func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	m.logger.Info("listening, speak your question")

	samples := make([]int16, 0, m.sampleRate*5)
	var silent int

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}
		samples = append(samples, m.frame...)

		if isSilent(m.frame, 500) {
			silent += len(m.frame)
		} else {
			silent = 0
		}

		if silent > m.sampleRate && len(samples) > m.sampleRate {
			break
		}
		if len(samples) > m.sampleRate*10 {
			break
		}
	}

	return m.toWAV(samples)
}

func (m *MicrophoneSource) toWAV(samples []int16) ([]byte, error) {
	f, err := os.CreateTemp(m.tempDir, "farmvoice-mic-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating wav: %w", err)
	}
	defer os.Remove(f.Name())

	err = audioconv.EncodeWAV(f, samples, m.sampleRate)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return os.ReadFile(f.Name())
}
