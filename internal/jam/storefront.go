package jam

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Product is a ticket product from the storefront API.
type Product struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Price string `json:"price"`
}

func (p Product) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.URL, validation.Required, is.URL),
		validation.Field(&p.Price, validation.Required),
	)
}

// Cart is a storefront cart holding the checkout URL for ticket
// purchase.
type Cart struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
	TotalAmount string `json:"totalAmount"`
}

func (c Cart) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.CheckoutURL, validation.Required, is.URL),
		validation.Field(&c.TotalAmount, validation.Required),
	)
}

// Photo is one gallery image.
type Photo struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

func (p Photo) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.URL, validation.Required, is.URL),
		validation.Field(&p.Alt, validation.Required),
	)
}

// ParseProduct decodes one product and rejects malformed shapes. Valid
// input round-trips unchanged.
func ParseProduct(data []byte) (Product, error) {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, fmt.Errorf("failed to parse product: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Product{}, fmt.Errorf("invalid product: %w", err)
	}
	return p, nil
}

// ParseCart decodes one cart and rejects malformed shapes.
func ParseCart(data []byte) (Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, fmt.Errorf("failed to parse cart: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Cart{}, fmt.Errorf("invalid cart: %w", err)
	}
	return c, nil
}

// ParsePhotos decodes the gallery listing; any malformed element
// rejects the whole listing.
func ParsePhotos(data []byte) ([]Photo, error) {
	var photos []Photo
	if err := json.Unmarshal(data, &photos); err != nil {
		return nil, fmt.Errorf("failed to parse photos: %w", err)
	}
	for i, p := range photos {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("photo %d invalid: %w", i, err)
		}
	}
	return photos, nil
}
