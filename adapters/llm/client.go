package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"biotriage/internal/errors"
	"biotriage/ports"
)

// Config holds the connection settings for the completion service
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	SystemContext string
	Timeout       time.Duration
	RetryAttempts int
}

// Client implements ports.CompletionClient against a chat-completions API
// (Moonshot-compatible endpoint shape). Every call carries a bounded
// timeout and a bounded retry count; all failures surface as
// EXTERNAL_SERVICE_ERROR application errors for the caller to degrade on.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a completion client from config
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.ConfigInvalid("missing completion API key")
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://api.moonshot.cn/v1"
	}
	if strings.TrimSpace(config.Model) == "" {
		config.Model = "kimi-k2-0905-preview"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}, nil
}

// Complete requests one narrative completion. Retries use exponential
// backoff and stop early on context cancellation.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 512
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", errors.ExternalServiceError("completion", ctx.Err())
			case <-time.After(backoff):
			}
		}

		text, err := c.complete(ctx, prompt, maxTokens, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.ExternalServiceError("completion", lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}

	system := c.config.SystemContext
	if system == "" {
		system = "You are a careful assistant. Output exactly what the user asks for."
	}
	body := reqBody{
		Model: c.config.Model,
		Messages: []msg{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion http %d: %s", resp.StatusCode, string(respRaw))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion response missing choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

var _ ports.CompletionClient = (*Client)(nil)

// MockCompletionClient is a completion client for testing
type MockCompletionClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors
	Calls    int
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	m.Calls++
	if m.Error != nil {
		return "", errors.ExternalServiceError("completion", m.Error)
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "Mock narrative: statistically credible pair with plausible biology.", nil
}
