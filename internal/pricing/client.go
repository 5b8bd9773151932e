package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client looks up per-item pricing from the wholesale apparel API. A
// style+color combination the supplier does not carry is a nil result,
// not an error: the goal handler asks the customer for clarification.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type priceResponse struct {
	StyleID   string  `json:"style_id"`
	ColorName string  `json:"color_name"`
	Price     float64 `json:"price"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Lookup returns the per-item price for a style in a given color, or
// nil when the supplier has no such combination.
func (c *Client) Lookup(ctx context.Context, styleID, colorName string) (*float64, error) {
	requestURL := strings.TrimSuffix(c.baseURL, "/") + "/styles/" + url.PathEscape(styleID) +
		"/pricing?color=" + url.QueryEscape(colorName)

	var result *float64
	err := c.retryWithBackoff(func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
		if err != nil {
			return false, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return true, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			result = nil
			return false, nil
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			return retryable, fmt.Errorf("pricing lookup failed: status %d, body: %s", resp.StatusCode, string(body))
		}

		var parsed priceResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
		price := parsed.Price
		result = &price
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) retryWithBackoff(fn func() (retryable bool, err error)) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(backoffs[attempt-1])
		}
		retryable, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return fmt.Errorf("failed after 3 attempts: %w", lastErr)
}
