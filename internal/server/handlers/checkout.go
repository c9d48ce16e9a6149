package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/remixweb/site/internal/checkout"
	"github.com/remixweb/site/internal/server/middleware"
	"github.com/remixweb/site/internal/server/responses"
)

const maxWebhookBody = 1 << 20

// CheckoutHandlers serves license purchase: session creation and the
// billing provider webhook.
type CheckoutHandlers struct {
	billing       *checkout.BillingClient
	fulfiller     *checkout.Fulfiller
	webhookSecret string
	priceID       string
	successURL    string
	cancelURL     string
}

// CheckoutOptions configures checkout handlers.
type CheckoutOptions struct {
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// NewCheckoutHandlers creates checkout handlers.
func NewCheckoutHandlers(billing *checkout.BillingClient, fulfiller *checkout.Fulfiller, opts CheckoutOptions) *CheckoutHandlers {
	return &CheckoutHandlers{
		billing:       billing,
		fulfiller:     fulfiller,
		webhookSecret: opts.WebhookSecret,
		priceID:       opts.PriceID,
		successURL:    opts.SuccessURL,
		cancelURL:     opts.CancelURL,
	}
}

// CreateCheckout handles POST /api/createCheckout. Requires a session.
func (h *CheckoutHandlers) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	uid := middleware.SessionUID(r.Context())

	var body struct {
		Quantity int    `json:"quantity"`
		Version  string `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		responses.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	session, err := h.billing.CreateSession(r.Context(), checkout.SessionParams{
		UID:        uid,
		PriceID:    h.priceID,
		Quantity:   body.Quantity,
		Version:    body.Version,
		SuccessURL: h.successURL,
		CancelURL:  h.cancelURL,
	})
	if err != nil {
		slog.Error("Failed to create checkout session", "error", err, "uid", uid)
		responses.Error(w, http.StatusPaymentRequired, "could not start checkout")
		return
	}
	responses.JSON(w, http.StatusOK, map[string]string{"url": session.URL})
}

// webhookEvent is the provider's event envelope, reduced to the fields
// fulfillment needs.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string            `json:"id"`
			AmountTotal int64             `json:"amount_total"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// Webhook handles POST /webhooks/billing. Only completed checkout
// sessions are acted on; everything else is acknowledged and ignored.
func (h *CheckoutHandlers) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		responses.Error(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := checkout.VerifySignature(payload, r.Header.Get("Billing-Signature"), h.webhookSecret); err != nil {
		if errors.Is(err, checkout.ErrInvalidSignature) {
			slog.Warn("Rejected webhook with bad signature")
			responses.Error(w, http.StatusUnauthorized, "signature verification failed")
			return
		}
		responses.Error(w, http.StatusBadRequest, "bad webhook")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		responses.Error(w, http.StatusBadRequest, "malformed event")
		return
	}
	if event.Type != "checkout.session.completed" {
		responses.JSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	quantity, _ := strconv.Atoi(event.Data.Object.Metadata["quantity"])
	session := checkout.CompletedSession{
		SessionID: event.Data.Object.ID,
		UID:       event.Data.Object.Metadata["uid"],
		Amount:    event.Data.Object.AmountTotal,
		Quantity:  quantity,
		Version:   event.Data.Object.Metadata["version"],
	}
	if session.SessionID == "" || session.UID == "" || session.Quantity < 1 {
		responses.Error(w, http.StatusBadRequest, "incomplete session metadata")
		return
	}

	if err := h.fulfiller.HandleCompletedSession(r.Context(), session); err != nil {
		slog.Error("Failed to fulfill checkout session", "error", err, "session_id", session.SessionID)
		responses.Error(w, http.StatusInternalServerError, "fulfillment failed")
		return
	}
	responses.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
