package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"

	"farm-voice/internal/infra"
)

// Translator asks a chat model for a straight translation.
type Translator struct {
	client openai.Client
	model  openai.ChatModel
}

func NewTranslator(cfg Config) *Translator {
	model := openai.ChatModelGPT4oMini
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}
	return &Translator{client: newSDKClient(cfg), model: model}
}

func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(infra.TranslationPrompt(source, target)),
			openai.UserMessage(text),
		},
		Model:       t.model,
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	out := infra.CleanModelText(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("empty message content")
	}
	return out, nil
}
