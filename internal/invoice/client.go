package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrMissingFields is the one collaborator error the assistant lets
// surface: invoicing must never proceed on incomplete order data.
var ErrMissingFields = errors.New("invoice request missing required fields")

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Request struct {
	SessionID       string  `json:"session_id"`
	CustomerName    string  `json:"customer_name"`
	Email           string  `json:"email"`
	ShippingAddress string  `json:"shipping_address"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"`
}

type Result struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	PaymentURL    string `json:"payment_url"`
	Status        string `json:"status"`
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

// CreateInvoice validates the request and submits it to the payment
// provider. Validation failures are returned before any network call is
// attempted.
func (c *Client) CreateInvoice(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	requestURL := strings.TrimSuffix(c.baseURL, "/") + "/invoices"

	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(backoffs[attempt-1])
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", requestURL, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("failed to execute request: %w", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
			var result Result
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
			}
			return &result, nil
		}

		lastErr = fmt.Errorf("invoice creation failed: status %d, body: %s", resp.StatusCode, string(body))
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("failed after 3 attempts: %w", lastErr)
}

func validate(req Request) error {
	var missing []string
	if strings.TrimSpace(req.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		missing = append(missing, "shipping_address")
	}
	if req.Amount <= 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}
