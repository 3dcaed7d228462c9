// Package azure synthesizes spoken responses with Azure Cognitive Services.
package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"farm-voice/internal/domain"
	"farm-voice/internal/infra"
)

const (
	DefaultVoice        = "zu-ZA-ThandoNeural"
	DefaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"
)

// Option configures the TTS client.
type Option func(*TTSClient)

func WithVoice(voice string) Option {
	return func(c *TTSClient) {
		if voice != "" {
			c.voice = voice
		}
	}
}

func WithOutputFormat(format string) Option {
	return func(c *TTSClient) {
		if format != "" {
			c.format = format
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *TTSClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithEndpoint overrides the regional endpoint, mostly for tests.
func WithEndpoint(url string) Option {
	return func(c *TTSClient) {
		c.endpoint = url
	}
}

type TTSClient struct {
	subscriptionKey string
	endpoint        string
	voice           string
	format          string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewTTSClient(key, region string, logger *slog.Logger, opts ...Option) *TTSClient {
	c := &TTSClient{
		subscriptionKey: key,
		endpoint:        fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		voice:           DefaultVoice,
		format:          DefaultOutputFormat,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize implements application.Synthesizer.
func (c *TTSClient) Synthesize(ctx context.Context, text, language string) (*domain.SynthesizedAudio, error) {
	ssml, err := c.buildSSML(text, language)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("azure tts: synthesizing", "chars", len(text), "voice", c.voice)

	var audio []byte
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(ssml))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
		req.Header.Set("Content-Type", "application/ssml+xml")
		req.Header.Set("X-Microsoft-OutputFormat", c.format)
		req.Header.Set("User-Agent", "farm-voice/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("tts request failed: %w", err)
		}
		defer resp.Body.Close()

		if err := infra.CheckResponse("azure tts", resp); err != nil {
			return err
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading audio data: %w", err)
		}
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	if len(audio) == 0 {
		return nil, errors.New("azure tts: empty audio")
	}

	c.logger.Debug("azure tts: got audio", "bytes", len(audio))
	return &domain.SynthesizedAudio{Data: audio, ContentType: contentType(c.format)}, nil
}

func (c *TTSClient) buildSSML(text, language string) (string, error) {
	locale := voiceLocale(c.voice, language)

	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("escaping ssml text: %w", err)
	}
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		locale, locale, c.voice, escaped.String(),
	), nil
}

// voiceLocale takes the locale from the voice name ("zu-ZA-ThandoNeural"),
// falling back to the requested language.
func voiceLocale(voice, language string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) == 3 {
		return parts[0] + "-" + parts[1]
	}
	return language
}

func contentType(format string) string {
	switch {
	case strings.Contains(format, "mp3"):
		return "audio/mpeg"
	case strings.Contains(format, "ogg"):
		return "audio/ogg"
	case strings.Contains(format, "webm"):
		return "audio/webm"
	case strings.HasPrefix(format, "riff"):
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
