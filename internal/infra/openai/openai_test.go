package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-voice/internal/domain"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "zu", r.FormValue("language"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.True(t, strings.HasSuffix(hdr.Filename, ".wav"), hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFF....WAVE", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"Ngicela usizo ngotamatisi"}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "query.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o600))

	c := NewWhisperClient(Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	clip := &domain.AudioClip{Data: []byte("RIFF....WAVE"), Path: path, Format: domain.FormatWAV}

	text, err := c.Transcribe(context.Background(), clip, "zu")
	require.NoError(t, err)
	assert.Equal(t, "Ngicela usizo ngotamatisi", text)
}

func TestWhisperClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Audio file might be corrupted or unsupported","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	c := NewWhisperClient(Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	clip := &domain.AudioClip{Data: []byte("garbage"), Format: domain.FormatUnknown}

	_, err := c.Transcribe(context.Background(), clip, "zu")
	assert.Error(t, err)
}

func TestTranslator_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "from isiZulu to English")
		assert.Equal(t, "Isitshalo sami siyabuna", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-test",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "My plant is wilting"}}]
		}`))
	}))
	defer server.Close()

	tr := NewTranslator(Config{APIKey: "test-key", BaseURL: server.URL + "/", Model: "gpt-test"})

	got, err := tr.Translate(context.Background(), "Isitshalo sami siyabuna", "zu", "en")
	require.NoError(t, err)
	assert.Equal(t, "My plant is wilting", got)
}

func TestTranslator_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer server.Close()

	tr := NewTranslator(Config{APIKey: "test-key", BaseURL: server.URL + "/"})

	_, err := tr.Translate(context.Background(), "sawubona", "zu", "en")
	assert.Error(t, err)
}
