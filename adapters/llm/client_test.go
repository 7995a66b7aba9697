package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"biotriage/internal/errors"
)

func newTestClient(t *testing.T, baseURL string, retries int) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:        "test-key",
		BaseURL:       baseURL,
		Model:         "test-model",
		Timeout:       5 * time.Second,
		RetryAttempts: retries,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}
	if !errors.HasCode(err, errors.CodeConfigInvalid) {
		t.Errorf("Missing key is a configuration problem, got code %s", errors.GetCode(err))
	}
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected authorization header %q", got)
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if body.Model != "test-model" {
			t.Errorf("Unexpected model %q", body.Model)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Errorf("Expected system+user messages, got %v", body.Messages)
		}
		if body.MaxTokens != 256 {
			t.Errorf("Expected max_tokens 256, got %d", body.MaxTokens)
		}

		json.NewEncoder(w).Encode(completionResponse("A grounded narrative."))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	text, err := client.Complete(context.Background(), "explain the pair", 256, 0.6)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "A grounded narrative." {
		t.Errorf("Unexpected completion %q", text)
	}
}

func TestComplete_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(completionResponse("second attempt"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	text, err := client.Complete(context.Background(), "prompt", 128, 0)
	if err != nil {
		t.Fatalf("Complete failed after retry: %v", err)
	}
	if text != "second attempt" {
		t.Errorf("Unexpected completion %q", text)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls.Load())
	}
}

func TestComplete_ExhaustedRetriesReturnServiceError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)
	_, err := client.Complete(context.Background(), "prompt", 128, 0)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !errors.HasCode(err, errors.CodeExternalService) {
		t.Errorf("Expected EXTERNAL_SERVICE_ERROR, got code %s", errors.GetCode(err))
	}
	if calls.Load() != 2 {
		t.Errorf("Expected initial attempt plus one retry, got %d", calls.Load())
	}
}

func TestComplete_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	_, err := client.Complete(context.Background(), "prompt", 128, 0)
	if err == nil {
		t.Fatal("Expected error for response without choices")
	}
	if !errors.HasCode(err, errors.CodeExternalService) {
		t.Errorf("Expected EXTERNAL_SERVICE_ERROR, got code %s", errors.GetCode(err))
	}
}

func TestComplete_CancelledContextStopsRetrying(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := client.Complete(ctx, "prompt", 128, 0)
	if err == nil {
		t.Fatal("Expected error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Cancelled context should short-circuit backoff, took %v", elapsed)
	}
}
