package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/openai/openai-go/v3"

	"farm-voice/internal/domain"
)

// WhisperClient transcribes through the hosted audio transcription endpoint.
type WhisperClient struct {
	client openai.Client
	model  openai.AudioModel
}

func NewWhisperClient(cfg Config) *WhisperClient {
	model := openai.AudioModelWhisper1
	if cfg.TranscriptionModel != "" {
		model = openai.AudioModel(cfg.TranscriptionModel)
	}
	return &WhisperClient{client: newSDKClient(cfg), model: model}
}

func (c *WhisperClient) Transcribe(ctx context.Context, clip *domain.AudioClip, language string) (string, error) {
	file, closeFile, err := uploadable(clip)
	if err != nil {
		return "", err
	}
	defer closeFile()

	params := openai.AudioTranscriptionNewParams{
		Model: c.model,
		File:  file,
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}

// uploadable prefers the request's transient file so the upload carries a
// filename with the right extension.
func uploadable(clip *domain.AudioClip) (io.Reader, func(), error) {
	if clip.Path != "" {
		f, err := os.Open(clip.Path)
		if err != nil {
			return nil, func() {}, fmt.Errorf("opening clip: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	name := "query" + clip.Format.Extension()
	return openai.File(bytes.NewReader(clip.Data), name, "application/octet-stream"), func() {}, nil
}
