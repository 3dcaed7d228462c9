// Package stub provides deterministic capabilities for local runs and
// demos without cloud credentials.
package stub

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"farm-voice/internal/application"
	"farm-voice/internal/domain"
	"farm-voice/internal/infra/audioconv"
)

var (
	_ application.Transcriber = (*Transcriber)(nil)
	_ application.Translator  = (*Translator)(nil)
	_ application.Synthesizer = (*Synthesizer)(nil)
)

// DefaultTranscript asks for help with tomatoes.
const DefaultTranscript = "Ngicela usizo ngotamatisi wami"

// Transcriber returns the same transcript for every non-empty clip.
type Transcriber struct {
	Text   string
	logger *slog.Logger
}

func NewTranscriber(text string, logger *slog.Logger) *Transcriber {
	if text == "" {
		text = DefaultTranscript
	}
	return &Transcriber{Text: text, logger: logger}
}

func (t *Transcriber) Transcribe(_ context.Context, clip *domain.AudioClip, language string) (string, error) {
	if clip == nil || len(clip.Data) == 0 {
		return "", domain.ErrEmptyTranscript
	}
	t.logger.Debug("stub transcription", "bytes", len(clip.Data), "language", language)
	return t.Text, nil
}

// phrasebook holds the demo phrases in both directions, keyed by lower-case
// source text.
var phrasebook = map[string]map[string]string{
	"zu>en": {
		"ngicela usizo ngotamatisi wami":    "I need help with my tomato plants",
		"nginezinambuzane ensimini yami":    "I have pests in my field",
		"ngitshale nini ummbila":            "When should I plant maize",
		"ngizinisela kangakanani izitshalo": "How often should I water my plants",
	},
}

// Translator looks phrases up in a small built-in phrasebook and returns
// anything else unchanged, tagged with the target language.
type Translator struct {
	logger *slog.Logger
}

func NewTranslator(logger *slog.Logger) *Translator {
	return &Translator{logger: logger}
}

func (t *Translator) Translate(_ context.Context, text, source, target string) (string, error) {
	if source == target {
		return text, nil
	}
	key := strings.ToLower(strings.TrimSpace(text))
	if out, ok := phrasebook[source+">"+target][key]; ok {
		return out, nil
	}
	t.logger.Debug("stub translation passthrough", "source", source, "target", target)
	return fmt.Sprintf("[%s] %s", target, text), nil
}

// Synthesizer renders a short silent wav whose length grows with the text.
type Synthesizer struct {
	tempDir string
}

func NewSynthesizer(tempDir string) *Synthesizer {
	return &Synthesizer{tempDir: tempDir}
}

func (s *Synthesizer) Synthesize(_ context.Context, text, _ string) (*domain.SynthesizedAudio, error) {
	// 20 ms per character, at least half a second.
	n := len(text) * audioconv.TargetRate / 50
	if n < audioconv.TargetRate/2 {
		n = audioconv.TargetRate / 2
	}

	f, err := os.CreateTemp(s.tempDir, "farmvoice-stub-*.wav")
	if err != nil {
		return nil, fmt.Errorf("stub synthesizer: %w", err)
	}
	defer os.Remove(f.Name())

	err = audioconv.EncodeWAV(f, make([]int16, n), audioconv.TargetRate)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("stub synthesizer: %w", err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return nil, fmt.Errorf("stub synthesizer: %w", err)
	}
	return &domain.SynthesizedAudio{Data: data, ContentType: "audio/wav"}, nil
}
