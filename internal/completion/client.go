package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls an OpenAI-compatible chat-completions endpoint. The
// assistant treats it as a black-box text-completion capability: any
// failure is reported as an error and the caller degrades to canned
// text or keyword logic.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

const (
	maxAttempts    = 3
	requestTimeout = 60 * time.Second
)

var backoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Complete sends the message list and returns the first choice's text.
// Transient failures (connection errors, 429/5xx) are retried with
// backoff up to the attempt budget; other HTTP errors fail immediately.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoffs[attempt-1]):
			}
		}

		text, retryable, err := c.attempt(ctx, messages, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, messages []Message, temperature float64) (string, bool, error) {
	payload := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection errors and timeouts are transient.
		return "", true, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("completion request failed: status %d, body: %s", resp.StatusCode, string(body))
		return "", isRetryableStatus(resp.StatusCode), err
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", false, fmt.Errorf("completion response has no choices")
	}
	return result.Choices[0].Message.Content, false, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
