// Package checkout integrates with the billing provider: creating
// checkout sessions, verifying webhooks, and fulfilling completed
// purchases as license tokens.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BillingClient talks to the billing provider's REST API.
type BillingClient struct {
	httpClient *http.Client
	apiURL     string
	secretKey  string
}

// NewBillingClient creates a billing client. apiURL defaults to the
// provider's public endpoint; tests point it at a local server.
func NewBillingClient(apiURL, secretKey string) (*BillingClient, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("billing client requires a secret key")
	}
	if apiURL == "" {
		apiURL = "https://api.stripe.com"
	}
	return &BillingClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		secretKey:  secretKey,
	}, nil
}

// Session is a checkout session as returned by the provider.
type Session struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Status      string            `json:"status"`
	AmountTotal int64             `json:"amount_total"`
	Metadata    map[string]string `json:"metadata"`
}

// SessionParams describes a license purchase to start.
type SessionParams struct {
	UID        string // purchasing user
	PriceID    string // provider price identifier
	Quantity   int
	Version    string // product version line being licensed
	SuccessURL string
	CancelURL  string
}

// CreateSession starts a hosted checkout session. The uid, quantity,
// and version ride along as metadata so the webhook can fulfill without
// extra lookups.
func (c *BillingClient) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	if params.Quantity < 1 {
		params.Quantity = 1
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", strconv.Itoa(params.Quantity))
	form.Set("metadata[uid]", params.UID)
	form.Set("metadata[quantity]", strconv.Itoa(params.Quantity))
	form.Set("metadata[version]", params.Version)

	var session Session
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &session, nil
}

// GetSession fetches a session by id.
func (c *BillingClient) GetSession(ctx context.Context, id string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/v1/checkout/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	return &session, nil
}

func (c *BillingClient) post(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *BillingClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("billing api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
