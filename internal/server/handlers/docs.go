// Package handlers contains the HTTP handlers for every route group.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/remixweb/site/internal/docs"
	"github.com/remixweb/site/internal/server/responses"
)

// DocsHandlers serves the versioned documentation API.
type DocsHandlers struct {
	svc *docs.Service
}

// NewDocsHandlers creates documentation handlers.
func NewDocsHandlers(svc *docs.Service) *DocsHandlers {
	return &DocsHandlers{svc: svc}
}

// Versions handles GET /api/docs/versions.
func (h *DocsHandlers) Versions(w http.ResponseWriter, r *http.Request) {
	heads, err := h.svc.Heads(r.Context())
	if err != nil {
		slog.Error("Failed to resolve version heads", "error", err)
		responses.Error(w, http.StatusInternalServerError, "failed to load versions")
		return
	}
	responses.JSON(w, http.StatusOK, heads)
}

// Menu handles GET /api/docs/{version}/menu.
func (h *DocsHandlers) Menu(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Menu(r.Context(), r.PathValue("version"))
	if err != nil {
		h.writeDocsError(w, err)
		return
	}
	responses.JSON(w, http.StatusOK, m)
}

// Page handles GET /api/docs/{version}/{slug...}: the menu and the
// rendered document, fetched together.
func (h *DocsHandlers) Page(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(r.PathValue("slug"), "/")
	if slug == "" {
		slug = "index"
	}

	m, doc, err := h.svc.Page(r.Context(), r.PathValue("version"), slug)
	if err != nil {
		h.writeDocsError(w, err)
		return
	}
	responses.JSON(w, http.StatusOK, map[string]any{"doc": doc, "menu": m})
}

func (h *DocsHandlers) writeDocsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docs.ErrUnknownVersion):
		responses.Error(w, http.StatusNotFound, "unknown version")
	case errors.Is(err, docs.ErrNotFoundDocMissing):
		// The 404 page itself is missing. Nothing sensible to serve.
		slog.Error("The 404 doc was not found")
		responses.Error(w, http.StatusInternalServerError, "documentation unavailable")
	default:
		slog.Error("Failed to load documentation", "error", err)
		responses.Error(w, http.StatusInternalServerError, "failed to load documentation")
	}
}
