package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zonlink/zonlink/internal/metrics"
	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/store"
)

const (
	// leaderboardSize is how many products the global snapshot carries.
	leaderboardSize = 100

	// recordTimeout bounds the fire-and-forget ingest path.
	recordTimeout = 500 * time.Millisecond
)

// Aggregator fans a single click event out into the rollup counters and
// reconstructs analytics snapshots from them. It is safe to call with a
// disabled store: writes become no-ops and reads return empty snapshots,
// because this sits on the redirect hot path and must never break it.
type Aggregator struct {
	store      *store.Store
	classifier Classifier
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// New creates an Aggregator.
func New(st *store.Store, classifier Classifier, logger *slog.Logger, recorder metrics.Recorder) *Aggregator {
	if classifier == nil {
		classifier = NewClassifier()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Aggregator{
		store:      st,
		classifier: classifier,
		logger:     logger.With("component", "analytics.aggregator"),
		metrics:    recorder,
	}
}

// RecordClick applies the full fan-out for one click event in a single
// atomic batch. Every effect is a commutative increment, so concurrent
// clicks interleave safely without cross-key transactions.
func (a *Aggregator) RecordClick(ctx context.Context, event model.ClickEvent) error {
	if !a.store.Enabled() {
		return nil
	}
	if event.ProductID == "" {
		return fmt.Errorf("record click: product id is required")
	}

	if IsBot(event.UserAgent) {
		a.metrics.IncClickRecorded("bot")
		return a.store.Client().Incr(ctx, keyBotClicks).Err()
	}

	start := time.Now()
	clickedAt := event.ClickedAt
	if clickedAt.IsZero() {
		clickedAt = time.Now()
	}

	device := a.classifier.Device(event.UserAgent)
	browser := a.classifier.Browser(event.UserAgent)
	country := normalizeCountry(event.Country)
	referrer := normalizeReferrerHost(event.Referrer)
	day := clickedAt.UTC().Format(dayLayout)
	nowMillis := clickedAt.UnixMilli()

	pipe := a.store.TxPipeline()

	pipe.Incr(ctx, keyTotalClicks)
	pipe.Set(ctx, keyLastClick, nowMillis, 0)
	pipe.HIncrBy(ctx, keyByDay, day, 1)

	if event.Slug != "" {
		pipe.HIncrBy(ctx, keyBySlug, event.Slug, 1)
		pipe.HIncrBy(ctx, slugDaysKey(event.Slug), day, 1)
	}

	pipe.HIncrBy(ctx, keyByDevice, string(device), 1)
	pipe.HIncrBy(ctx, keyByBrowser, browser, 1)

	if country != "" {
		pipe.HIncrBy(ctx, keyByCountry, country, 1)
		pipe.HIncrBy(ctx, productCountriesKey(event.ProductID), country, 1)
	}

	if referrer != "" {
		pipe.HIncrBy(ctx, keyByReferrer, referrer, 1)
		pipe.HIncrBy(ctx, productReferrersKey(event.ProductID), referrer, 1)
	}

	productK := productKey(event.ProductID)
	pipe.HIncrBy(ctx, productK, "total", 1)
	pipe.HIncrBy(ctx, productK, string(device), 1)
	pipe.HIncrBy(ctx, productK, "browser:"+browser, 1)
	pipe.HSet(ctx, productK, "last_click", nowMillis)

	pipe.ZIncrBy(ctx, keyLeaderboard, 1, event.ProductID)

	if _, err := pipe.Exec(ctx); err != nil {
		a.metrics.IncClickRecorded("dropped")
		return fmt.Errorf("click fan-out failed: %w", err)
	}

	a.metrics.IncClickRecorded("success")
	a.metrics.ObserveFanoutDuration(time.Since(start))
	return nil
}

// RecordClickAsync records without blocking the caller. Errors are
// logged but never returned; the redirect must not wait on analytics.
func (a *Aggregator) RecordClickAsync(event model.ClickEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := a.RecordClick(ctx, event); err != nil {
			a.logger.Warn("failed to record click",
				"product_id", event.ProductID,
				"slug", event.Slug,
				"error", err,
			)
		}
	}()
}

// GlobalStats reconstructs the global analytics snapshot: scalar
// counters, the breakdown maps, and the top-N product leaderboard with
// per-product detail. The snapshot is best-effort consistent.
func (a *Aggregator) GlobalStats(ctx context.Context) (*model.AnalyticsSnapshot, error) {
	snapshot := model.EmptySnapshot()
	if !a.store.Enabled() {
		return snapshot, nil
	}

	pipe := a.store.Pipeline()
	totalCmd := pipe.Get(ctx, keyTotalClicks)
	lastCmd := pipe.Get(ctx, keyLastClick)
	botsCmd := pipe.Get(ctx, keyBotClicks)
	byDayCmd := pipe.HGetAll(ctx, keyByDay)
	bySlugCmd := pipe.HGetAll(ctx, keyBySlug)
	devicesCmd := pipe.HGetAll(ctx, keyByDevice)
	browsersCmd := pipe.HGetAll(ctx, keyByBrowser)
	countriesCmd := pipe.HGetAll(ctx, keyByCountry)
	referrersCmd := pipe.HGetAll(ctx, keyByReferrer)
	topCmd := pipe.ZRevRangeWithScores(ctx, keyLeaderboard, 0, leaderboardSize-1)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return snapshot, fmt.Errorf("fetch global counters: %w", err)
	}

	snapshot.TotalClicks = parseCounter(totalCmd)
	snapshot.LastClick = parseCounter(lastCmd)
	snapshot.BotClicks = parseCounter(botsCmd)
	snapshot.ByDay = parseCountMap(byDayCmd)
	snapshot.BySlug = parseCountMap(bySlugCmd)
	snapshot.Devices = parseCountMap(devicesCmd)
	snapshot.Browsers = parseCountMap(browsersCmd)
	snapshot.Locations = parseCountMap(countriesCmd)
	snapshot.Referrers = parseCountMap(referrersCmd)

	ranked, err := topCmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return snapshot, fmt.Errorf("fetch leaderboard: %w", err)
	}

	asins := make([]string, 0, len(ranked))
	for _, z := range ranked {
		if asin, ok := z.Member.(string); ok {
			asins = append(asins, asin)
		}
	}

	topLinks, err := a.fetchProductStats(ctx, asins)
	if err != nil {
		return snapshot, err
	}
	snapshot.TopLinks = topLinks

	return snapshot, nil
}

// OwnerStats derives a per-owner view by batch-fetching the owner's
// slugs and products and merging in memory. No per-user secondary index
// is maintained; this is O(owned entities) per request by design.
func (a *Aggregator) OwnerStats(ctx context.Context, slugs, productIDs []string) (*model.OwnerStats, error) {
	out := &model.OwnerStats{
		BySlug:    map[string]int64{},
		ByDay:     map[string]int64{},
		TopLinks:  map[string]*model.ProductStats{},
		Devices:   map[string]int64{},
		Browsers:  map[string]int64{},
		Locations: map[string]int64{},
		Referrers: map[string]int64{},
	}
	if !a.store.Enabled() || (len(slugs) == 0 && len(productIDs) == 0) {
		return out, nil
	}

	pipe := a.store.Pipeline()

	var slugCounts *redis.SliceCmd
	if len(slugs) > 0 {
		slugCounts = pipe.HMGet(ctx, keyBySlug, slugs...)
	}

	dayCmds := make(map[string]*redis.MapStringStringCmd, len(slugs))
	for _, slug := range slugs {
		dayCmds[slug] = pipe.HGetAll(ctx, slugDaysKey(slug))
	}

	countryCmds := make(map[string]*redis.MapStringStringCmd, len(productIDs))
	referrerCmds := make(map[string]*redis.MapStringStringCmd, len(productIDs))
	for _, asin := range productIDs {
		countryCmds[asin] = pipe.HGetAll(ctx, productCountriesKey(asin))
		referrerCmds[asin] = pipe.HGetAll(ctx, productReferrersKey(asin))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return out, fmt.Errorf("fetch owner rollups: %w", err)
	}

	if slugCounts != nil {
		values, _ := slugCounts.Result()
		for i, v := range values {
			if i >= len(slugs) || v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					out.BySlug[slugs[i]] = n
					out.TotalClicks += n
				}
			}
		}
	}

	for _, cmd := range dayCmds {
		for day, count := range parseCountMap(cmd) {
			out.ByDay[day] += count
		}
	}
	for _, cmd := range countryCmds {
		for cc, count := range parseCountMap(cmd) {
			out.Locations[cc] += count
		}
	}
	for _, cmd := range referrerCmds {
		for host, count := range parseCountMap(cmd) {
			out.Referrers[host] += count
		}
	}

	topLinks, err := a.fetchProductStats(ctx, productIDs)
	if err != nil {
		return out, err
	}
	out.TopLinks = topLinks

	// Device and browser breakdowns are kept per product; the owner view
	// sums them across the owned products.
	for _, ps := range topLinks {
		for device, n := range ps.Devices {
			out.Devices[device] += n
		}
		for browser, n := range ps.Browsers {
			out.Browsers[browser] += n
		}
	}

	return out, nil
}

// fetchProductStats batch-fetches per-product detail hashes.
// Products with no recorded clicks are dropped from the result.
func (a *Aggregator) fetchProductStats(ctx context.Context, asins []string) (map[string]*model.ProductStats, error) {
	stats := make(map[string]*model.ProductStats, len(asins))
	if len(asins) == 0 {
		return stats, nil
	}

	pipe := a.store.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(asins))
	for _, asin := range asins {
		cmds[asin] = pipe.HGetAll(ctx, productKey(asin))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return stats, fmt.Errorf("fetch product details: %w", err)
	}

	for asin, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		stats[asin] = productStatsFromHash(asin, fields)
	}

	return stats, nil
}

// productStatsFromHash decodes the product:{asin} hash layout.
func productStatsFromHash(asin string, fields map[string]string) *model.ProductStats {
	ps := &model.ProductStats{
		ProductID: asin,
		Devices:   map[string]int64{},
		Browsers:  map[string]int64{},
	}

	for field, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == "total":
			ps.Total = n
		case field == "last_click":
			ps.LastClick = n
		case strings.HasPrefix(field, "browser:"):
			ps.Browsers[strings.TrimPrefix(field, "browser:")] = n
		default:
			ps.Devices[field] = n
		}
	}

	return ps
}

// normalizeCountry uppercases an ISO code and drops the "unknown"
// sentinel and anything that is not two letters.
func normalizeCountry(raw string) string {
	if raw == "" || strings.EqualFold(raw, "unknown") {
		return ""
	}
	if len(raw) != 2 {
		return ""
	}
	return strings.ToUpper(raw)
}

// normalizeReferrerHost reduces a referrer URL to its bare hostname
// with any leading "www." stripped. Unparseable referrers are skipped
// silently; a bad Referer header must not fail the click.
func normalizeReferrerHost(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// parseCounter reads an integer string command, tolerating missing keys.
func parseCounter(cmd *redis.StringCmd) int64 {
	raw, err := cmd.Result()
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseCountMap converts a hash result to a count map, skipping
// unparseable values.
func parseCountMap(cmd *redis.MapStringStringCmd) map[string]int64 {
	out := map[string]int64{}
	fields, err := cmd.Result()
	if err != nil {
		return out
	}
	for k, v := range fields {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		}
	}
	return out
}
