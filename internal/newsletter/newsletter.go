// Package newsletter subscribes visitors to the mailing list through
// the list provider's API.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"
)

// ErrInvalidEmail reports a subscribe attempt with an unparseable
// address; handlers surface it as a form error rather than a 500.
var ErrInvalidEmail = errors.New("invalid email address")

// Client subscribes addresses to a mailing list form.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiSecret  string
	formID     string
}

// NewClient creates a mailing-list client. apiURL defaults to the
// provider endpoint; tests point it at a local server.
func NewClient(apiURL, apiSecret, formID string) (*Client, error) {
	if apiSecret == "" || formID == "" {
		return nil, fmt.Errorf("newsletter client requires api secret and form id")
	}
	if apiURL == "" {
		apiURL = "https://api.convertkit.com"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		apiSecret:  apiSecret,
		formID:     formID,
	}, nil
}

// Subscribe adds email to the list. Failures are not retried; the
// caller converts them into a user-facing message.
func (c *Client) Subscribe(ctx context.Context, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	payload, err := json.Marshal(map[string]string{
		"api_secret": c.apiSecret,
		"email":      email,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal subscribe request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/forms/%s/subscribe", c.apiURL, c.formID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("subscribe request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("newsletter api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
