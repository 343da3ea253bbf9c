package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zonlink/zonlink/internal/handler/dto"
	"github.com/zonlink/zonlink/internal/middleware"
	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/registry"
)

// LinkHandler handles link CRUD and the shorten entry point.
type LinkHandler struct {
	registry *registry.Registry
	baseURL  string
	logger   *slog.Logger
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(reg *registry.Registry, baseURL string, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		registry: reg,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}
}

// Shorten handles POST /api/v1/shorten.
func (h *LinkHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req dto.ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	identity := middleware.IdentityFromContext(r.Context())

	link, err := h.registry.Create(r.Context(), registry.CreateInput{
		OwnerID:      identity.UserID,
		ProductID:    req.ProductID,
		AffiliateTag: req.AffiliateTag,
		RegionDomain: req.Region,
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		DesiredSlug:  req.DesiredSlug,
	})
	if err != nil {
		h.handleRegistryError(w, err)
		return
	}

	h.logger.Info("link_created",
		"link_id", link.ID,
		"slug", link.Slug,
		"product_id", link.ProductID,
		"has_custom_slug", req.DesiredSlug != "",
	)

	writeJSON(w, http.StatusCreated, dto.ShortenResponse{
		Slug:     link.Slug,
		ShortURL: h.baseURL + "/" + link.Slug,
	})
}

// List handles GET /api/v1/links.
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	ownerID := identity.UserID
	if identity.Admin {
		if override := r.URL.Query().Get("owner_id"); override != "" {
			ownerID = override
		}
	}
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "MISSING_IDENTITY", "Caller identity is required")
		return
	}

	links, err := h.registry.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("list links failed", "owner_id", ownerID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLinkListResponse(links, h.baseURL))
}

// Get handles GET /api/v1/links/{id}.
func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Link ID is required")
		return
	}

	link, ok := h.authorize(w, r, id)
	if !ok {
		return
	}
	if link == nil {
		writeError(w, http.StatusNotFound, "LINK_NOT_FOUND", "Link not found")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLinkResponse(link, h.baseURL))
}

// Update handles PATCH /api/v1/links/{id}.
func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Link ID is required")
		return
	}

	var req dto.UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	link, ok := h.authorize(w, r, id)
	if !ok {
		return
	}
	if link == nil {
		writeError(w, http.StatusNotFound, "LINK_NOT_FOUND", "Link not found")
		return
	}

	updated, err := h.registry.Update(r.Context(), id, registry.UpdateInput{
		Title:    req.Title,
		Active:   req.Active,
		Favorite: req.Favorite,
	})
	if err != nil {
		h.logger.Error("update link failed", "link_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}
	if updated == nil {
		// Deleted concurrently; the update path is a silent no-op.
		writeError(w, http.StatusNotFound, "LINK_NOT_FOUND", "Link not found")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLinkResponse(updated, h.baseURL))
}

// Delete handles DELETE /api/v1/links/{id}.
func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Link ID is required")
		return
	}

	link, ok := h.authorize(w, r, id)
	if !ok {
		return
	}
	if link == nil {
		// Already gone; delete is idempotent.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	if err := h.registry.Delete(r.Context(), id, identity.UserID); err != nil {
		h.logger.Error("delete link failed", "link_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("link_deleted", "link_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// authorize fetches the link and enforces owner scoping with the admin
// override. Returns (nil, true) when the link does not exist, and
// (nil, false) after writing a response when the caller is forbidden.
func (h *LinkHandler) authorize(w http.ResponseWriter, r *http.Request, id string) (*model.Link, bool) {
	identity := middleware.IdentityFromContext(r.Context())

	link, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrLinkNotFound) {
			return nil, true
		}
		h.logger.Error("fetch link failed", "link_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return nil, false
	}

	if identity.Admin {
		return link, true
	}
	if link.OwnerID == "" || link.OwnerID != identity.UserID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not the link owner")
		return nil, false
	}
	return link, true
}

// handleRegistryError maps registry errors to structured HTTP responses.
func (h *LinkHandler) handleRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrMissingProductID):
		writeError(w, http.StatusBadRequest, "MISSING_PRODUCT_ID", "Product ID is required")
	case errors.Is(err, registry.ErrInvalidProductID):
		writeError(w, http.StatusBadRequest, "INVALID_PRODUCT_ID", "Product ID must be a 10-character ASIN")
	case errors.Is(err, registry.ErrInvalidSlug):
		writeError(w, http.StatusBadRequest, "INVALID_SLUG", "Slug may only contain letters, digits, hyphen and underscore")
	case errors.Is(err, registry.ErrSlugTaken):
		writeError(w, http.StatusConflict, "SLUG_TAKEN", "Slug already exists")
	case errors.Is(err, registry.ErrSlugExhausted):
		writeError(w, http.StatusConflict, "SLUG_EXHAUSTED", "Could not generate a unique slug")
	default:
		h.logger.Error("shorten failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
