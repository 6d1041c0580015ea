package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProviders_Defaults(t *testing.T) {
	t.Parallel()

	openai := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini"})
	if openai.baseURL != "https://api.openai.com" {
		t.Errorf("openai baseURL = %s", openai.baseURL)
	}
	if openai.Name() != "openai" {
		t.Errorf("Name() = %s", openai.Name())
	}

	gemini := NewGeminiProvider(GeminiConfig{APIKey: "test-key", Model: "gemini-2.0-flash"})
	if gemini.baseURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("gemini baseURL = %s", gemini.baseURL)
	}

	ollama := NewOllamaProvider(OllamaConfig{Model: "llama3.2"})
	if ollama.baseURL != "http://localhost:11434" {
		t.Errorf("ollama baseURL = %s", ollama.baseURL)
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %s", got)
		}

		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "THOUGHT: ok\nACTION: list_tables{}"},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o-mini"})

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "you are an agent"},
			{Role: "user", Content: "what tables?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(resp.Message.Content, "ACTION: list_tables{}") {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}
}

func TestGeminiProvider_Complete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("key = %s", key)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// The system message travels as systemInstruction, not contents.
		if req.SystemInstruction == nil {
			t.Error("systemInstruction missing")
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != "user" {
			t.Errorf("contents = %+v", req.Contents)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]string{{"text": "FINAL ANSWER: two tables."}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]int{"promptTokenCount": 8, "candidatesTokenCount": 4, "totalTokenCount": 12},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(GeminiConfig{APIKey: "test-key", BaseURL: server.URL, Model: "gemini-2.0-flash"})

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "you are an agent"},
			{Role: "user", Content: "what tables?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Message.Role != "assistant" {
		t.Errorf("role = %s, want assistant", resp.Message.Role)
	}
	if resp.Message.Content != "FINAL ANSWER: two tables." {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func TestGeminiProvider_APIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(GeminiConfig{APIKey: "k", BaseURL: server.URL, Model: "gemini-2.0-flash"})

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Error == nil || resp.Error.Type != "RESOURCE_EXHAUSTED" {
		t.Errorf("Error = %+v", resp.Error)
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             req.Model,
			"message":           map[string]string{"role": "assistant", "content": "THOUGHT: hm"},
			"done":              true,
			"prompt_eval_count": 7,
			"eval_count":        3,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(OllamaConfig{BaseURL: server.URL, Model: "llama3.2"})

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Errorf("TotalTokens = %d, want 10", resp.Usage.TotalTokens)
	}
}

func TestScriptedProvider(t *testing.T) {
	t.Parallel()

	provider := NewScriptedProvider("first", "second")

	for _, want := range []string{"first", "second", "second"} {
		resp, err := provider.Complete(context.Background(), CompletionRequest{})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if resp.Message.Content != want {
			t.Errorf("content = %q, want %q", resp.Message.Content, want)
		}
	}
	if provider.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", provider.Calls())
	}
}
