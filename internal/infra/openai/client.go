// Package openai adapts the OpenAI API to the transcription and translation
// ports.
package openai

import (
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type Config struct {
	APIKey  string
	BaseURL string
	// Model is the chat model used for translation.
	Model string
	// TranscriptionModel defaults to whisper-1.
	TranscriptionModel string
	HTTPClient         *http.Client
}

func newSDKClient(cfg Config) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return openai.NewClient(opts...)
}
