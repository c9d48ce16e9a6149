package jam

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProduct_ValidInputRoundTrips(t *testing.T) {
	raw := []byte(`{"id":"prod_1","title":"Conference Ticket","url":"https://shop.example.com/ticket","price":"299.00"}`)

	product, err := ParseProduct(raw)
	require.NoError(t, err)

	again, err := json.Marshal(product)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(again))
}

func TestParseProduct_RejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"missing id":    `{"title":"Ticket","url":"https://example.com","price":"1.00"}`,
		"missing price": `{"id":"p1","title":"Ticket","url":"https://example.com"}`,
		"malformed url": `{"id":"p1","title":"Ticket","url":"://no-scheme","price":"1.00"}`,
		"wrong type":    `{"id":1,"title":"Ticket","url":"https://example.com","price":"1.00"}`,
		"not json":      `{{{`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProduct([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestParseCart_ValidAndInvalid(t *testing.T) {
	cart, err := ParseCart([]byte(`{"id":"cart_1","checkoutUrl":"https://shop.example.com/checkout/abc","totalAmount":"598.00"}`))
	require.NoError(t, err)
	require.Equal(t, "cart_1", cart.ID)
	require.Equal(t, "https://shop.example.com/checkout/abc", cart.CheckoutURL)

	_, err = ParseCart([]byte(`{"id":"cart_1","totalAmount":"598.00"}`))
	require.Error(t, err)
}

func TestParsePhotos_AnyInvalidElementRejectsAll(t *testing.T) {
	valid := `[{"url":"https://cdn.example.com/1.jpg","alt":"crowd"},{"url":"https://cdn.example.com/2.jpg","alt":"stage"}]`
	photos, err := ParsePhotos([]byte(valid))
	require.NoError(t, err)
	require.Len(t, photos, 2)

	_, err = ParsePhotos([]byte(`[{"url":"https://cdn.example.com/1.jpg","alt":"crowd"},{"url":"https://cdn.example.com/2.jpg"}]`))
	require.Error(t, err)
}

func TestNewTicketClient_RequiresDomainAndToken(t *testing.T) {
	_, err := NewTicketClient(TicketOptions{Domain: "shop.example.com"})
	require.Error(t, err)

	_, err = NewTicketClient(TicketOptions{Token: "tok"})
	require.Error(t, err)

	client, err := NewTicketClient(TicketOptions{Domain: "shop.example.com", Token: "tok"})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestCreateTicketCart_UnknownDiscountCodeFailsEarly(t *testing.T) {
	client, err := NewTicketClient(TicketOptions{
		Domain:        "shop.example.com",
		Token:         "tok",
		DiscountTiers: map[string]string{"EARLYBIRD": "disc_early"},
	})
	require.NoError(t, err)

	// Fails before any network call, so the fake domain never resolves.
	_, err = client.CreateTicketCart(context.Background(), 1, "NOT-A-CODE")
	require.ErrorIs(t, err, ErrInvalidDiscountCode)
}
