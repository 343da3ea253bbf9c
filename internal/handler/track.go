package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zonlink/zonlink/internal/analytics"
	"github.com/zonlink/zonlink/internal/handler/dto"
	"github.com/zonlink/zonlink/internal/model"
)

// TrackHandler handles the attribution ingest entry point.
type TrackHandler struct {
	aggregator *analytics.Aggregator
	logger     *slog.Logger
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(agg *analytics.Aggregator, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{aggregator: agg, logger: logger}
}

// Track handles POST /api/v1/track. The response is an acceptance
// acknowledgement only; ingestion is fire-and-forget and failures are
// absorbed. Clients send this with keepalive semantics, so it must
// return fast.
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	asin, ok := model.NormalizeASIN(req.ProductID)
	if !ok {
		writeError(w, http.StatusBadRequest, "MISSING_PRODUCT_ID", "Product ID is required")
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}
	referrer := req.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}

	h.aggregator.RecordClickAsync(model.ClickEvent{
		ProductID: asin,
		Slug:      req.Slug,
		UserAgent: userAgent,
		Country:   req.Country,
		Referrer:  referrer,
		ClickedAt: time.Now(),
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
