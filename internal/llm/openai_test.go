package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL + "/v1"
}

func TestOpenAIEmbedder_EmbedTexts(t *testing.T) {
	baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "text-embedding-3-small" || len(req.Input) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.0, 1.0, 0.0]},
				{"object": "embedding", "index": 0, "embedding": [1.0, 0.0, 0.0]}
			],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	})

	embedder := NewOpenAIEmbedder("test-key", baseURL, "text-embedding-3-small", 3, testPolicy())
	vectors, err := embedder.EmbedTexts(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("EmbedTexts() count = %d, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("EmbedTexts() not ordered by index: %v", vectors)
	}
}

func TestOpenAIEmbedder_EmbedTexts_Errors(t *testing.T) {
	tests := []struct {
		name      string
		texts     []string
		status    int
		body      string
		wantCalls int32
	}{
		{
			name:      "empty input",
			texts:     nil,
			wantCalls: 0,
		},
		{
			name:      "size mismatch",
			texts:     []string{"a"},
			status:    http.StatusOK,
			body:      `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1.0]}]}`,
			wantCalls: 3,
		},
		{
			name:      "invalid api key",
			texts:     []string{"a"},
			status:    http.StatusUnauthorized,
			body:      `{"error":{"message":"invalid key","type":"invalid_request_error"}}`,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			embedder := NewOpenAIEmbedder("test-key", baseURL, "m", 3, testPolicy())
			_, err := embedder.EmbedTexts(context.Background(), tt.texts)
			if !errors.Is(err, ErrEmbeddingFailure) {
				t.Errorf("EmbedTexts() error = %v, want ErrEmbeddingFailure", err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("server called %d times, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
		}
		var req struct {
			Model       string    `json:"model"`
			Messages    []Message `json:"messages"`
			MaxTokens   int       `json:"max_tokens"`
			Temperature float32   `json:"temperature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem || req.Messages[1].Content != "pregunta" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.MaxTokens != 1000 || req.Temperature != 0.1 {
			t.Errorf("unexpected params: max_tokens=%d temperature=%v", req.MaxTokens, req.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "respuesta"}, "finish_reason": "stop"}]
		}`))
	})

	generator := NewOpenAIGenerator("test-key", baseURL, "gpt-4o-mini", testPolicy())
	answer, err := generator.Generate(context.Background(), "sistema", "pregunta")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "respuesta" {
		t.Errorf("Generate() = %q, want respuesta", answer)
	}
}

func TestOpenAIGenerator_GenerateRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	baseURL := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`))
	})

	generator := NewOpenAIGenerator("test-key", baseURL, "gpt-4o-mini", testPolicy())
	answer, err := generator.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "ok" || calls.Load() != 2 {
		t.Errorf("Generate() = %q after %d calls", answer, calls.Load())
	}
}
