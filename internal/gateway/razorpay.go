// Package gateway talks to the payment provider: order creation over its REST
// API and HMAC verification of checkout and webhook signatures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/tidwall/gjson"
)

// Provider is recorded on every payment attempt created through this client.
const Provider = "razorpay"

// Config holds the provider credentials.
type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Timeout       time.Duration
}

// Order is a provider order awaiting payment.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("gateway error (status: %d, code: %s): %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("gateway error (status: %d)", e.StatusCode)
}

// Client is a Razorpay REST client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new gateway client. Outbound calls are recorded as New
// Relic external segments when the request context carries a transaction.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
	}
}

// CreateOrder creates an order for amountMinor (paise for INR).
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	reqBody, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send order request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode:  resp.StatusCode,
			Code:        gjson.GetBytes(respBody, "error.code").String(),
			Description: gjson.GetBytes(respBody, "error.description").String(),
		}
	}

	id := gjson.GetBytes(respBody, "id")
	if !id.Exists() || id.String() == "" {
		return nil, fmt.Errorf("order response has no id: %s", string(respBody))
	}

	return &Order{
		ID:       id.String(),
		Amount:   gjson.GetBytes(respBody, "amount").Int(),
		Currency: gjson.GetBytes(respBody, "currency").String(),
		Receipt:  gjson.GetBytes(respBody, "receipt").String(),
	}, nil
}

// VerifyPaymentSignature checks a checkout signature over "orderId|paymentId".
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.cfg.KeySecret, orderID+"|"+paymentID, signature)
}

// VerifyWebhookSignature checks a webhook signature over the raw request body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.cfg.WebhookSecret == "" {
		return false
	}
	return VerifySignature(c.cfg.WebhookSecret, string(body), signature)
}
