// Package main is the entrypoint for the Zonlink API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zonlink/zonlink/internal/analytics"
	"github.com/zonlink/zonlink/internal/config"
	"github.com/zonlink/zonlink/internal/geo"
	"github.com/zonlink/zonlink/internal/handler"
	"github.com/zonlink/zonlink/internal/metrics"
	"github.com/zonlink/zonlink/internal/middleware"
	"github.com/zonlink/zonlink/internal/migrate"
	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/registry"
	"github.com/zonlink/zonlink/internal/resolver"
	"github.com/zonlink/zonlink/internal/server"
	"github.com/zonlink/zonlink/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:          "zonlink",
		Short:        "Affiliate deep-link redirect and click analytics service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newResolveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newServeCmd runs the HTTP server. It is also the default command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// newMigrateCmd replays the legacy monolithic link blob into the
// per-entity layout, then exits.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the legacy link blob into per-entity records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

// newResolveCmd runs one resolution session locally and prints the
// navigation it would issue. Useful for debugging destination URIs
// without a browser.
func newResolveCmd() *cobra.Command {
	var device, country, tag, region string

	cmd := &cobra.Command{
		Use:   "resolve <asin>",
		Short: "Resolve an ASIN to its per-device destinations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), args[0], device, country, tag, region)
		},
	}

	cmd.Flags().StringVar(&device, "device", "other", "device class: android, ios or other")
	cmd.Flags().StringVar(&country, "country", "", "ISO country code for region selection")
	cmd.Flags().StringVar(&tag, "tag", "", "affiliate tag override")
	cmd.Flags().StringVar(&region, "region", "", "Amazon region domain override (e.g. com, co.uk)")

	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := initLogger(cfg)

	st, err := store.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to store",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return err
	}
	if st.Enabled() {
		logger.Info("connected to store")
	} else {
		logger.Warn("store disabled, running degraded: reads empty, writes dropped")
	}

	maxmind, err := geo.OpenMaxMind(cfg.GeoIPDBPath)
	if err != nil {
		logger.Error("failed to open geo database", "error", err, "path", cfg.GeoIPDBPath)
		return err
	}
	geoChain := geo.NewChain(cfg.GeoTimeout,
		maxmind,
		geo.TimezoneSource{},
		geo.StaticSource{Default: cfg.GeoDefaultCountry},
	)

	recorder := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	reg := registry.New(st, logger, recorder)

	classifier := analytics.NewClassifier()
	aggregator := analytics.New(st, classifier, logger, recorder)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(st, logger)
	linkHandler := handler.NewLinkHandler(reg, cfg.BaseURL, logger)
	redirectHandler := handler.NewRedirectHandler(reg, aggregator, classifier, geoChain, handler.RedirectDefaults{
		RegionDomain: cfg.DefaultRegionDomain,
		AffiliateTag: cfg.DefaultAffiliateTag,
	}, logger, recorder)
	trackHandler := handler.NewTrackHandler(aggregator, logger)
	statsHandler := handler.NewStatsHandler(aggregator, reg, logger)
	qrHandler := handler.NewQRHandler(reg, cfg.BaseURL, logger)

	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		link:     linkHandler,
		redirect: redirectHandler,
		track:    trackHandler,
		stats:    statsHandler,
		qr:       qrHandler,
		store:    st,
		cfg:      cfg,
		logger:   logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("store", func(ctx context.Context) error {
		return st.Close()
	})
	srv.OnShutdown("geo", func(ctx context.Context) error {
		maxmind.Close()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := initLogger(cfg)

	st, err := store.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to store",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return err
	}
	defer st.Close()

	if !st.Enabled() {
		logger.Warn("store disabled, nothing to migrate")
		return nil
	}

	reg := registry.New(st, logger, metrics.NewNoop())

	result, err := migrate.New(st, reg, logger).Run(ctx)
	if err != nil {
		logger.Error("migration failed", "error", err)
		return err
	}

	fmt.Printf("migrated %d links, skipped %d\n", result.Migrated, result.Skipped)
	return nil
}

func runResolve(ctx context.Context, asin, device, country, tag, region string) error {
	normalized, ok := model.NormalizeASIN(asin)
	if !ok {
		return fmt.Errorf("invalid ASIN %q: expected 10 alphanumeric characters", asin)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	session := resolver.NewSession(resolver.Params{
		ProductID:    normalized,
		AffiliateTag: firstNonEmpty(tag, cfg.DefaultAffiliateTag),
		RegionDomain: firstNonEmpty(region, cfg.DefaultRegionDomain),
	}, resolver.Deps{
		Device:    analytics.DeviceClass(strings.ToLower(device)),
		Country:   func(context.Context) string { return strings.ToUpper(country) },
		Navigator: printNavigator{},
		Attribute: func() {},
		AfterFunc: func(d time.Duration, f func()) *time.Timer { return nil },
	})

	state := session.Run(ctx)
	dest := session.Destinations()

	fmt.Printf("state:   %s\n", state)
	fmt.Printf("web:     %s\n", dest.Web)
	fmt.Printf("app:     %s\n", dest.AppScheme)
	fmt.Printf("intent:  %s\n", dest.Intent)
	return nil
}

// printNavigator prints each navigation instead of issuing it.
type printNavigator struct{}

func (printNavigator) Navigate(uri string) {
	fmt.Printf("navigate: %s\n", uri)
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	link     *handler.LinkHandler
	redirect *handler.RedirectHandler
	track    *handler.TrackHandler
	stats    *handler.StatsHandler
	qr       *handler.QRHandler
	store    *store.Store
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	// Health and observability endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	rateLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  deps.logger,
		Store:   deps.store,
		Enabled: deps.cfg.RateLimitRedirectEnabled,
		RPS:     deps.cfg.RateLimitRedirectRPS,
		Burst:   deps.cfg.RateLimitRedirectBurst,
	})

	// API v1 routes (identity headers injected by the fronting gateway)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.WithIdentity(deps.cfg.AdminToken))
		r.Use(maxBodySize(deps.cfg.MaxRequestBodySize))

		r.Post("/shorten", deps.link.Shorten)

		r.Route("/links", func(r chi.Router) {
			r.Get("/", deps.link.List)
			r.Post("/", deps.link.Shorten)
			r.Get("/{id}", deps.link.Get)
			r.Patch("/{id}", deps.link.Update)
			r.Delete("/{id}", deps.link.Delete)
			r.Get("/{id}/qr", deps.qr.Generate)
		})

		r.Post("/track", deps.track.Track)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", deps.stats.Global)
			r.Get("/me", deps.stats.Owner)
		})

		r.Route("/affiliate", func(r chi.Router) {
			r.Get("/", deps.stats.Affiliate)
			r.Post("/sale", deps.stats.Sale)
		})
	})

	// Redirect endpoints with IP-based rate limiting (no auth required)
	r.With(rateLimit).Get("/r", deps.redirect.Resolve)
	r.With(rateLimit).Get("/{slug}", deps.redirect.Redirect)

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

// maxBodySize limits request body reads.
func maxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return msg
}
