package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/remixweb/site/internal/metrics"
	"github.com/remixweb/site/internal/newsletter"
	"github.com/remixweb/site/internal/server/responses"
)

// NewsletterHandlers serves the mailing-list signup action.
type NewsletterHandlers struct {
	client   *newsletter.Client
	recorder metrics.Recorder
}

// NewNewsletterHandlers creates newsletter handlers.
func NewNewsletterHandlers(client *newsletter.Client, recorder metrics.Recorder) *NewsletterHandlers {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &NewsletterHandlers{client: client, recorder: recorder}
}

// Subscribe handles POST /_actions/newsletter. Provider failures are
// not retried; they come back as a user-facing message.
func (h *NewsletterHandlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		responses.Error(w, http.StatusBadRequest, "malformed form")
		return
	}
	email := r.PostFormValue("email")

	if err := h.client.Subscribe(r.Context(), email); err != nil {
		if errors.Is(err, newsletter.ErrInvalidEmail) {
			h.recorder.ObserveNewsletterSignup("invalid")
			responses.Error(w, http.StatusBadRequest, "that email address doesn't look right")
			return
		}
		h.recorder.ObserveNewsletterSignup("error")
		slog.Error("Newsletter subscribe failed", "error", err)
		responses.Error(w, http.StatusInternalServerError, "signup failed, please try again later")
		return
	}

	h.recorder.ObserveNewsletterSignup("subscribed")
	responses.JSON(w, http.StatusOK, map[string]bool{"subscribed": true})
}
