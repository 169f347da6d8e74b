package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiCompleteSuccess(t *testing.T) {
	var seen geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Fatalf("unexpected api key header: %s", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"stop\":true}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 21, "candidatesTokenCount": 9}
		}`))
	}))
	defer server.Close()

	provider := NewGeminiProvider(
		"test-key",
		WithGeminiEndpoint(server.URL),
		WithGeminiHTTPClient(server.Client()),
	)

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Model:        "gemini-2.0-flash",
		SystemPrompt: "You extract slots.",
		Messages: []Message{
			{Role: RoleUser, Content: "5 days in Paris"},
			{Role: RoleAssistant, Content: "noted"},
			{Role: RoleUser, Content: "from NYC"},
		},
		Temperature: 0.1,
		ForceJSON:   true,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Content != `{"stop":true}` {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.StopReason != "STOP" {
		t.Fatalf("unexpected stop reason: %q", resp.StopReason)
	}
	if resp.Usage.InputTokens != 21 || resp.Usage.OutputTokens != 9 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}

	if seen.SystemInstruction == nil || len(seen.SystemInstruction.Parts) != 1 {
		t.Fatalf("expected system instruction, got %+v", seen.SystemInstruction)
	}
	if len(seen.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(seen.Contents))
	}
	if seen.Contents[1].Role != "model" {
		t.Fatalf("expected assistant mapped to model role, got %q", seen.Contents[1].Role)
	}
	if seen.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected json mime type, got %q", seen.GenerationConfig.ResponseMimeType)
	}
}

func TestGeminiCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"status":"INVALID_ARGUMENT","message":"bad request"}}`))
	}))
	defer server.Close()

	provider := NewGeminiProvider("test-key", WithGeminiEndpoint(server.URL), WithGeminiHTTPClient(server.Client()))
	_, err := provider.Complete(context.Background(), CompletionRequest{
		Model:    "gemini-2.0-flash",
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "bad request") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	provider := NewGeminiProvider("key")
	registry.Register("Gemini", provider)

	got, ok := registry.Get("  gemini ")
	if !ok {
		t.Fatal("expected provider lookup to succeed")
	}
	if got != provider {
		t.Fatal("unexpected provider instance")
	}
	if _, ok := registry.Get("openai"); ok {
		t.Fatal("expected unknown provider lookup to fail")
	}
}
