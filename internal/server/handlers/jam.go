package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/remixweb/site/internal/jam"
	"github.com/remixweb/site/internal/server/responses"
)

// JamHandlers serves the conference pages and ticket checkout.
type JamHandlers struct {
	svc     *jam.Service
	tickets *jam.TicketClient // nil when the storefront is not configured
	homeURL string
}

// NewJamHandlers creates conference handlers. tickets may be nil.
func NewJamHandlers(svc *jam.Service, tickets *jam.TicketClient) *JamHandlers {
	return &JamHandlers{svc: svc, tickets: tickets, homeURL: "/jam/2025"}
}

// Lineup handles GET /jam/2025 and GET /jam/2025/lineup.
func (h *JamHandlers) Lineup(w http.ResponseWriter, r *http.Request) {
	lineup, err := h.svc.Lineup(r.Context())
	if err != nil {
		slog.Error("Failed to load conference lineup", "error", err)
		responses.Error(w, http.StatusInternalServerError, "failed to load lineup")
		return
	}
	responses.JSON(w, http.StatusOK, lineup)
}

// BuyTicket handles POST /jam/2025/ticket: creates a storefront cart
// and redirects the buyer to its checkout URL. An invalid discount code
// redirects back to the conference home page instead of erroring.
func (h *JamHandlers) BuyTicket(w http.ResponseWriter, r *http.Request) {
	if h.tickets == nil {
		responses.Error(w, http.StatusNotFound, "ticket sales are not open")
		return
	}

	if err := r.ParseForm(); err != nil {
		responses.Error(w, http.StatusBadRequest, "malformed form")
		return
	}
	quantity, _ := strconv.Atoi(r.PostFormValue("quantity"))
	discount := r.PostFormValue("discountCode")

	cart, err := h.tickets.CreateTicketCart(r.Context(), quantity, discount)
	if err != nil {
		if errors.Is(err, jam.ErrInvalidDiscountCode) {
			http.Redirect(w, r, h.homeURL, http.StatusSeeOther)
			return
		}
		slog.Error("Failed to create ticket cart", "error", err)
		responses.Error(w, http.StatusInternalServerError, "failed to start ticket checkout")
		return
	}
	http.Redirect(w, r, cart.CheckoutURL, http.StatusSeeOther)
}
