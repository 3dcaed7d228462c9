// Package google holds the Google Cloud speech and translation clients.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"farm-voice/internal/domain"
	"farm-voice/internal/infra/audioconv"
)

// regionTags maps bare language tags to the locale Cloud Speech expects.
var regionTags = map[string]string{
	"zu": "zu-ZA",
	"en": "en-US",
	"xh": "xh-ZA",
	"af": "af-ZA",
}

func speechLocale(tag string) string {
	if strings.Contains(tag, "-") {
		return tag
	}
	if loc, ok := regionTags[strings.ToLower(tag)]; ok {
		return loc
	}
	return tag
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// SpeechClient runs synchronous recognition on whole clips. It relies on
// Application Default Credentials unless a credentials file is given.
type SpeechClient struct {
	client    *speech.Client
	recognize recognizeFunc
	logger    *slog.Logger
}

func NewSpeechClient(ctx context.Context, credentialsFile string, logger *slog.Logger) (*SpeechClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &SpeechClient{
		client: client,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return client.Recognize(ctx, req)
		},
		logger: logger,
	}, nil
}

func (s *SpeechClient) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *SpeechClient) Transcribe(ctx context.Context, clip *domain.AudioClip, language string) (string, error) {
	req, err := recognizeRequest(clip, speechLocale(language))
	if err != nil {
		return "", err
	}

	resp, err := s.recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}

	s.logger.Debug("google speech transcription", "results", len(resp.GetResults()))
	return strings.Join(parts, " "), nil
}

// recognizeRequest sends WebM/Opus as-is and converts everything else to
// 16 kHz LINEAR16.
func recognizeRequest(clip *domain.AudioClip, locale string) (*speechpb.RecognizeRequest, error) {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               locale,
		EnableAutomaticPunctuation: true,
	}

	var content []byte
	if clip.Format == domain.FormatWebM {
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = 48000
		content = clip.Data
	} else {
		pcm, err := audioconv.Decode(clip.Data, clip.Format, audioconv.Options{})
		if err != nil {
			return nil, fmt.Errorf("speech recognize: %w", err)
		}
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = audioconv.TargetRate
		content = audioconv.LINEAR16(pcm)
	}

	return &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	}, nil
}
