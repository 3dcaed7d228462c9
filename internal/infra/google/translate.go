package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"

	"farm-voice/internal/infra"
)

// TranslateClient calls the Cloud Translation v2 REST API with an API key.
type TranslateClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

func NewTranslateClient(apiKey string) *TranslateClient {
	return NewTranslateClientWithURL(apiKey, "https://translation.googleapis.com/language/translate/v2")
}

func NewTranslateClientWithURL(apiKey, baseURL string) *TranslateClient {
	return &TranslateClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

func (c *TranslateClient) WithHTTPClient(hc *http.Client) *TranslateClient {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

type translateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (c *TranslateClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	bodyBytes, err := json.Marshal(translateRequest{
		Q:      []string{text},
		Source: source,
		Target: target,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.baseURL + "?key=" + url.QueryEscape(c.apiKey)

	var result translateResponse
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if err := infra.CheckResponse("google translate", resp); err != nil {
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
	if retryErr != nil {
		return "", retryErr
	}

	if len(result.Data.Translations) == 0 {
		return "", errors.New("empty response from google translate")
	}
	return html.UnescapeString(result.Data.Translations[0].TranslatedText), nil
}
