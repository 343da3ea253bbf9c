package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zonlink/zonlink/internal/analytics"
	"github.com/zonlink/zonlink/internal/handler/dto"
	"github.com/zonlink/zonlink/internal/middleware"
	"github.com/zonlink/zonlink/internal/registry"
)

// StatsHandler handles analytics read entry points and the billing
// sale event.
type StatsHandler struct {
	aggregator *analytics.Aggregator
	registry   *registry.Registry
	logger     *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(agg *analytics.Aggregator, reg *registry.Registry, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{aggregator: agg, registry: reg, logger: logger}
}

// Global handles GET /api/v1/stats: the full analytics snapshot.
// Requires the admin override.
func (h *StatsHandler) Global(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Admin {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	snapshot, err := h.aggregator.GlobalStats(r.Context())
	if err != nil {
		h.logger.Error("global stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch analytics")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// Owner handles GET /api/v1/stats/me: the caller's derived view,
// filtered to the slugs and products of the links they own.
func (h *StatsHandler) Owner(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity.UserID == "" {
		writeError(w, http.StatusUnauthorized, "MISSING_IDENTITY", "Caller identity is required")
		return
	}

	links, err := h.registry.ListByOwner(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("owner links fetch failed", "owner_id", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch analytics")
		return
	}

	slugs := make([]string, 0, len(links))
	productIDs := make([]string, 0, len(links))
	seen := map[string]bool{}
	for _, link := range links {
		slugs = append(slugs, link.Slug)
		if !seen[link.ProductID] {
			seen[link.ProductID] = true
			productIDs = append(productIDs, link.ProductID)
		}
	}

	stats, err := h.aggregator.OwnerStats(r.Context(), slugs, productIDs)
	if err != nil {
		h.logger.Error("owner stats failed", "owner_id", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch analytics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Affiliate handles GET /api/v1/affiliate: the caller's referral counters.
func (h *StatsHandler) Affiliate(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity.UserID == "" {
		writeError(w, http.StatusUnauthorized, "MISSING_IDENTITY", "Caller identity is required")
		return
	}

	stats, err := h.aggregator.AffiliateStats(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("affiliate stats failed", "owner_id", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch affiliate stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Sale handles POST /api/v1/affiliate/sale: the billing processor's
// subscription-activated event. Requires the admin override since it
// arrives from a trusted server-side integration.
func (h *StatsHandler) Sale(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Admin {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return
	}

	var req dto.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	if err := h.aggregator.RecordSale(r.Context(), req.UserID, req.Earnings); err != nil {
		h.logger.Error("record sale failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record sale")
		return
	}

	h.logger.Info("sale_recorded", "user_id", req.UserID, "earnings", req.Earnings)
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
