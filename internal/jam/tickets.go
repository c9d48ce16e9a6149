package jam

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

// ErrInvalidDiscountCode reports a ticket checkout attempted with a
// discount code outside the configured tiers. Handlers turn it into a
// redirect back to the conference home page.
var ErrInvalidDiscountCode = errors.New("invalid discount code")

// TicketClient creates storefront carts for conference tickets.
type TicketClient struct {
	httpClient    *http.Client
	endpoint      string
	token         string
	productID     string
	discountTiers map[string]string // user-facing code -> storefront discount code
}

// TicketOptions configures the storefront ticket client.
type TicketOptions struct {
	Domain        string // storefront domain, e.g. shop.example.com
	Token         string // storefront access token
	ProductID     string // ticket product/variant id
	DiscountTiers map[string]string
}

// NewTicketClient creates a ticket client against the storefront API.
func NewTicketClient(opts TicketOptions) (*TicketClient, error) {
	if opts.Domain == "" || opts.Token == "" {
		return nil, fmt.Errorf("ticket client requires storefront domain and token")
	}
	return &TicketClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		endpoint:      "https://" + opts.Domain + "/api/carts",
		token:         opts.Token,
		productID:     opts.ProductID,
		discountTiers: opts.DiscountTiers,
	}, nil
}

// CreateTicketCart creates a cart for quantity tickets and returns the
// parsed cart, whose CheckoutURL the handler redirects to. An unknown
// discount code fails before any network call.
func (t *TicketClient) CreateTicketCart(ctx context.Context, quantity int, discountCode string) (Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	var discount string
	if discountCode != "" {
		mapped, ok := t.discountTiers[strings.ToUpper(discountCode)]
		if !ok {
			return Cart{}, fmt.Errorf("%w: %s", ErrInvalidDiscountCode, discountCode)
		}
		discount = mapped
	}

	payload, err := json.Marshal(map[string]any{
		"productId": t.productID,
		"quantity":  quantity,
		"discount":  discount,
	})
	if err != nil {
		return Cart{}, fmt.Errorf("failed to marshal cart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Cart{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Storefront-Access-Token", t.token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Cart{}, fmt.Errorf("cart request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Cart{}, fmt.Errorf("storefront returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to read cart response: %w", err)
	}
	return ParseCart(raw)
}
