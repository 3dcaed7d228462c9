package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"farm-voice/internal/infra"
	"farm-voice/internal/infra/anthropic"
)

func TestClaudeClient_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			System   string `json:"system"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.System, "from isiZulu to English") {
			t.Errorf("system prompt: got %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "Ngicela usizo ngotamatisi" {
			t.Errorf("messages: got %+v", req.Messages)
		}

		response := map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "\"I need help with tomatoes\""},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	got, err := client.Translate(context.Background(), "Ngicela usizo ngotamatisi", "zu", "en")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}

	if got != "I need help with tomatoes" {
		t.Errorf("Translate: got %q, want %q", got, "I need help with tomatoes")
	}
}

func TestClaudeClient_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	if _, err := client.Translate(context.Background(), "sawubona", "zu", "en"); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestClaudeClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid x-api-key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("bad-key", "claude-test", server.URL)

	_, err := client.Translate(context.Background(), "sawubona", "zu", "en")

	var statusErr *infra.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}

func TestClaudeClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"Water in the morning."}]}`))
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	got, err := client.Translate(context.Background(), "Nisela ekuseni.", "zu", "en")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if got != "Water in the morning." {
		t.Errorf("Translate: got %q", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls: got %d, want 3", calls.Load())
	}
}
