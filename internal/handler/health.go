package handler

import (
	"log/slog"
	"net/http"

	"github.com/zonlink/zonlink/internal/store"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(st *store.Store, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: st, logger: logger}
}

// Healthz handles GET /healthz. Always reports ok while the process
// is serving.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz. Reports degraded when the store is
// configured but unreachable. A deliberately storeless deployment is
// still ready, since every operation has a defined degraded behavior.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.store.Enabled() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "disabled"})
		return
	}

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness probe failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unreachable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "connected"})
}
