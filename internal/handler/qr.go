package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/zonlink/zonlink/internal/middleware"
	"github.com/zonlink/zonlink/internal/registry"
)

const (
	qrDefaultSize = 256
	qrMaxSize     = 1024
)

// QRHandler renders QR codes for short links.
type QRHandler struct {
	registry *registry.Registry
	baseURL  string
	logger   *slog.Logger
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(reg *registry.Registry, baseURL string, logger *slog.Logger) *QRHandler {
	return &QRHandler{
		registry: reg,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}
}

// Generate handles GET /api/v1/links/{id}/qr. Returns a PNG encoding
// of the short URL. Size is clamped to [64, 1024] pixels.
func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Link ID is required")
		return
	}

	link, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrLinkNotFound) {
			writeError(w, http.StatusNotFound, "LINK_NOT_FOUND", "Link not found")
			return
		}
		h.logger.Error("qr link fetch failed", "link_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Admin && (link.OwnerID == "" || link.OwnerID != identity.UserID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not the link owner")
		return
	}

	size := qrDefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SIZE", "Size must be an integer")
			return
		}
		size = parsed
	}
	if size < 64 {
		size = 64
	}
	if size > qrMaxSize {
		size = qrMaxSize
	}

	png, err := qrcode.Encode(h.baseURL+"/"+link.Slug, qrcode.Medium, size)
	if err != nil {
		h.logger.Error("qr encode failed", "link_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Error("qr write failed", "link_id", id, "error", err)
	}
}
