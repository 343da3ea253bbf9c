package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zonlink/zonlink/internal/analytics"
	"github.com/zonlink/zonlink/internal/geo"
	"github.com/zonlink/zonlink/internal/handler"
	"github.com/zonlink/zonlink/internal/middleware"
	"github.com/zonlink/zonlink/internal/registry"
	"github.com/zonlink/zonlink/internal/testutil"
)

const adminToken = "test-admin-token"

// newTestRouter wires the full route surface on a disabled store: no
// Redis needed, every degraded-mode behavior is exercised for real.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	st := testutil.NewDisabledStore(t)
	logger := testutil.DiscardLogger()

	reg := registry.New(st, logger, nil)

	classifier := analytics.NewClassifier()
	agg := analytics.New(st, classifier, logger, nil)
	geoChain := geo.NewChain(0, geo.StaticSource{Default: "US"})

	linkHandler := handler.NewLinkHandler(reg, "http://test.local", logger)
	redirectHandler := handler.NewRedirectHandler(reg, agg, classifier, geoChain, handler.RedirectDefaults{
		RegionDomain: "com",
	}, logger, nil)
	trackHandler := handler.NewTrackHandler(agg, logger)
	statsHandler := handler.NewStatsHandler(agg, reg, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.WithIdentity(adminToken))
		r.Post("/shorten", linkHandler.Shorten)
		r.Get("/links", linkHandler.List)
		r.Post("/track", trackHandler.Track)
		r.Get("/stats", statsHandler.Global)
		r.Get("/stats/me", statsHandler.Owner)
		r.Post("/affiliate/sale", statsHandler.Sale)
	})
	r.Get("/r", redirectHandler.Resolve)
	r.Get("/{slug}", redirectHandler.Redirect)
	return r
}

func decodeError(t *testing.T, body []byte) (code string) {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return resp.Code
}

func TestShorten_Validation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "bad json", body: "{nope", wantStatus: http.StatusBadRequest, wantCode: "INVALID_JSON"},
		{name: "missing product id", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "MISSING_PRODUCT_ID"},
		{name: "malformed product id", body: `{"product_id":"xyz"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_PRODUCT_ID"},
		{name: "invalid slug", body: `{"product_id":"B01N5IB20Q","slug":"a b"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_SLUG"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if got := decodeError(t, rec.Body.Bytes()); got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestShorten_Success(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten",
		strings.NewReader(`{"product_id":"b01n5ib20q","slug":"mydeal"}`))
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body)
	}

	var resp struct {
		Slug     string `json:"slug"`
		ShortURL string `json:"short_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Slug != "mydeal" {
		t.Errorf("slug = %s, want mydeal", resp.Slug)
	}
	if resp.ShortURL != "http://test.local/mydeal" {
		t.Errorf("short_url = %s", resp.ShortURL)
	}
}

func TestList_RequiresIdentity(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decodeError(t, rec.Body.Bytes()); got != "MISSING_IDENTITY" {
		t.Errorf("code = %s, want MISSING_IDENTITY", got)
	}
}

func TestTrack(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "accepted", body: `{"product_id":"B01N5IB20Q","slug":"deal"}`, wantStatus: http.StatusAccepted},
		{name: "missing product id", body: `{"slug":"deal"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `nope`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/track", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestRedirect_UnknownSlug(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nosuch", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestResolve_MissingASIN(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/r", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec.Body.Bytes()); got != "MISSING_PRODUCT_ID" {
		t.Errorf("code = %s, want MISSING_PRODUCT_ID", got)
	}
}

func TestResolve_DesktopRedirects(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/r?asin=B01N5IB20Q&tag=tag-21", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 (body %s)", rec.Code, rec.Body)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://www.amazon.com/dp/B01N5IB20Q") {
		t.Errorf("Location = %s", loc)
	}
	if !strings.Contains(loc, "tag=tag-21") {
		t.Errorf("Location missing affiliate tag: %s", loc)
	}
}

func TestResolve_AndroidGetsIntent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/r?asin=B01N5IB20Q", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/120.0 Mobile")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "intent://") {
		t.Errorf("Location = %s, want intent URI", loc)
	}
}

func TestResolve_IOSGetsRacePage(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/r?asin=B01N5IB20Q", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Version/17.0 Mobile Safari/604.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 race page", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %s, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "com.amazon.mobile.shopping.web://") {
		t.Error("race page missing app scheme")
	}
	if !strings.Contains(body, "document.hidden") {
		t.Error("race page missing visibility check")
	}
	if !strings.Contains(body, "2500") {
		t.Error("race page missing fallback delay")
	}
}

func TestStats_AdminGate(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 without admin", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set(middleware.AdminTokenHeader, adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with admin token (body %s)", rec.Code, rec.Body)
	}
}

func TestStatsMe_RequiresIdentity(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSale_AdminGate(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/affiliate/sale",
		strings.NewReader(`{"user_id":"user-1","earnings":2.5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 without admin", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/affiliate/sale",
		strings.NewReader(`{"user_id":"user-1","earnings":2.5}`))
	req.Header.Set(middleware.AdminTokenHeader, adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with admin token (body %s)", rec.Code, rec.Body)
	}
}
