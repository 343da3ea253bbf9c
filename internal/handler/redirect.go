package handler

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zonlink/zonlink/internal/analytics"
	"github.com/zonlink/zonlink/internal/geo"
	"github.com/zonlink/zonlink/internal/metrics"
	"github.com/zonlink/zonlink/internal/middleware"
	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/registry"
	"github.com/zonlink/zonlink/internal/resolver"
)

// RedirectHandler handles the deep-link redirect entry points.
type RedirectHandler struct {
	registry   *registry.Registry
	aggregator *analytics.Aggregator
	classifier analytics.Classifier
	geoChain   *geo.Chain
	defaults   RedirectDefaults
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// RedirectDefaults are applied when a link record carries no overrides.
type RedirectDefaults struct {
	RegionDomain string
	AffiliateTag string
}

// NewRedirectHandler creates a new RedirectHandler.
func NewRedirectHandler(
	reg *registry.Registry,
	agg *analytics.Aggregator,
	classifier analytics.Classifier,
	geoChain *geo.Chain,
	defaults RedirectDefaults,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *RedirectHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RedirectHandler{
		registry:   reg,
		aggregator: agg,
		classifier: classifier,
		geoChain:   geoChain,
		defaults:   defaults,
		logger:     logger,
		metrics:    recorder,
	}
}

// Redirect handles GET /{slug}: resolve the slug and run the
// device-aware navigation.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	start := time.Now()

	link, err := h.registry.ResolveSlug(r.Context(), slug)
	h.metrics.ObserveRedirectDuration(time.Since(start))

	if err != nil {
		if errors.Is(err, registry.ErrLinkNotFound) {
			h.logger.Info("redirect_not_found", "slug", slug)
			writeError(w, http.StatusNotFound, "LINK_NOT_FOUND", "Link not found")
			return
		}
		h.logger.Error("redirect_error", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if !link.Active {
		// Suspended links don't reveal their existence.
		h.logger.Info("redirect_suspended", "slug", slug)
		writeError(w, http.StatusNotFound, "LINK_NOT_FOUND", "Link not found")
		return
	}

	h.serve(w, r, resolver.Params{
		ProductID:    link.ProductID,
		AffiliateTag: firstNonEmpty(link.AffiliateTag, h.defaults.AffiliateTag),
		RegionDomain: firstNonEmpty(link.RegionDomain, h.defaults.RegionDomain),
		Slug:         slug,
	})
}

// Resolve handles GET /r?asin=...&tag=...&region=...: the slugless
// direct entry used by the share flow.
func (h *RedirectHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.serve(w, r, resolver.Params{
		ProductID:    query.Get("asin"),
		AffiliateTag: firstNonEmpty(query.Get("tag"), h.defaults.AffiliateTag),
		RegionDomain: firstNonEmpty(query.Get("region"), h.defaults.RegionDomain),
	})
}

// serve runs the resolution state machine and issues the per-device
// navigation: a 302 for android/desktop, the app-race page for iOS.
func (h *RedirectHandler) serve(w http.ResponseWriter, r *http.Request, params resolver.Params) {
	asin, ok := model.NormalizeASIN(params.ProductID)
	if params.ProductID != "" && ok {
		params.ProductID = asin
	} else {
		params.ProductID = ""
	}

	userAgent := r.UserAgent()
	device := h.classifier.Device(userAgent)

	// Referral visits carry ?ref={owner}; counted off the hot path.
	if ref := r.URL.Query().Get("ref"); ref != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := h.aggregator.IncAffiliateClick(ctx, ref); err != nil {
				h.logger.Warn("affiliate click not recorded", "ref", ref, "error", err)
			}
		}()
	}

	// Geography resolves once, before dispatch; a result arriving after
	// the race starts never re-navigates.
	country := h.geoChain.Country(r.Context(), geo.Hints{
		IP:       middleware.ClientIP(r),
		Timezone: r.URL.Query().Get("tz"),
	})

	navigator := &captureNavigator{}
	session := resolver.NewSession(params, resolver.Deps{
		Device:    device,
		Country:   func(context.Context) string { return country },
		Navigator: navigator,
		Attribute: func() {
			h.aggregator.RecordClickAsync(model.ClickEvent{
				ProductID: params.ProductID,
				Slug:      params.Slug,
				UserAgent: userAgent,
				Country:   country,
				Referrer:  r.Referer(),
				ClickedAt: time.Now(),
			})
		},
		// The race itself runs in the rendered page; the server never
		// arms a fallback timer of its own.
		AfterFunc: func(d time.Duration, f func()) *time.Timer { return nil },
	})

	if state := session.Run(r.Context()); state == resolver.StateInvalid {
		writeError(w, http.StatusBadRequest, "MISSING_PRODUCT_ID", "Product ID is required")
		return
	}

	h.metrics.IncRedirect(string(device))
	dest := session.Destinations()

	h.logger.Info("redirect_success",
		"slug", params.Slug,
		"product_id", params.ProductID,
		"device", string(device),
		"country", country,
	)

	setRedirectHeaders(w)

	if device == analytics.DeviceIOS {
		h.renderRacePage(w, dest, params)
		return
	}
	http.Redirect(w, r, navigator.last, http.StatusFound)
}

// setRedirectHeaders sets security headers on navigation responses.
func setRedirectHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Cache-Control", "private, max-age=0")
}

// captureNavigator records the most recent navigation target.
type captureNavigator struct {
	last string
}

func (n *captureNavigator) Navigate(uri string) {
	n.last = uri
}

// racePage implements the app-try/web-fallback race on iOS: navigate
// to the app scheme immediately, then force the web URL if the page is
// still visible when the timer fires. Backgrounding (the app taking
// over) implicitly cancels the fallback.
var racePage = template.Must(template.New("race").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Opening Amazon…</title>
</head>
<body>
<p>Opening the Amazon app…</p>
<p><a id="open" href="{{.AppScheme}}">Open App</a> · <a href="{{.Web}}">Continue in browser</a></p>
<script>
(function () {
  var app = {{.AppScheme}};
  var web = {{.Web}};
  window.location.href = app;
  setTimeout(function () {
    if (!document.hidden) {
      window.location.href = web;
    }
  }, {{.DelayMillis}});
  document.getElementById("open").addEventListener("click", function (e) {
    e.preventDefault();
    window.location.href = app;
  });
})();
</script>
</body>
</html>
`))

// renderRacePage writes the iOS navigation race page.
func (h *RedirectHandler) renderRacePage(w http.ResponseWriter, dest resolver.Destinations, params resolver.Params) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := racePage.Execute(w, map[string]any{
		"AppScheme":   dest.AppScheme,
		"Web":         dest.Web,
		"DelayMillis": resolver.FallbackDelay.Milliseconds(),
	})
	if err != nil {
		h.logger.Error("race page render failed", "slug", params.Slug, "error", err)
	}
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
