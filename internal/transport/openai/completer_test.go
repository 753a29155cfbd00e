package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/vecnote/internal/domain"
	"github.com/kailas-cloud/vecnote/internal/metrics"
)

func chatReply(content string, prompt, completion int) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "chat-model",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{
			"prompt_tokens":     prompt,
			"completion_tokens": completion,
			"total_tokens":      prompt + completion,
		},
	}
}

func newTestCompleter(url, provider string) *Completer {
	return NewCompleter(&CompleterConfig{
		APIKey:      "test-key",
		BaseURL:     url,
		Model:       "chat-model",
		Temperature: 0.2,
		MaxTokens:   256,
		Timeout:     5 * time.Second,
		Provider:    provider,
	})
}

func TestCompleter_Complete(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "chat-model" || req.MaxTokens != 256 {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "summarize ANON_0123abcd" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		writeJSON(w, http.StatusOK, chatReply(`{"title":"t"}`, 12, 8))
	})

	before := testutil.ToFloat64(metrics.CompletionRequestsTotal.WithLabelValues("complete-ok", "chat-model", "success"))
	res, err := newTestCompleter(srv.URL, "complete-ok").Complete(context.Background(), "summarize ANON_0123abcd")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if res.Text != `{"title":"t"}` {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.PromptTokens != 12 || res.CompletionTokens != 8 || res.TotalTokens != 20 {
		t.Errorf("unexpected usage: %+v", res)
	}
	after := testutil.ToFloat64(metrics.CompletionRequestsTotal.WithLabelValues("complete-ok", "chat-model", "success"))
	if after-before != 1 {
		t.Errorf("expected success counter +1, got %v", after-before)
	}
}

func TestCompleter_EmptyReply(t *testing.T) {
	tests := []struct {
		name  string
		reply map[string]any
	}{
		{"blank content", chatReply("  ", 1, 1)},
		{"no choices", map[string]any{"id": "x", "choices": []any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, tt.reply)
			})
			_, err := newTestCompleter(srv.URL, "test").Complete(context.Background(), "p")
			if !errors.Is(err, domain.ErrCompletionProviderError) {
				t.Errorf("expected ErrCompletionProviderError, got %v", err)
			}
		})
	}
}

func TestCompleter_APIError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"message": "overloaded", "type": "server_error"},
		})
	})

	_, err := newTestCompleter(srv.URL, "test").Complete(context.Background(), "p")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
}

func TestCompleter_Timeout(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		writeJSON(w, http.StatusOK, chatReply("late", 1, 1))
	})

	c := NewCompleter(&CompleterConfig{BaseURL: srv.URL, Model: "chat-model", Timeout: 50 * time.Millisecond})
	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError on timeout, got %v", err)
	}
}
