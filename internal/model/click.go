package model

import "time"

// ClickEvent represents a single click on a short link. Events are
// ephemeral: they are never stored verbatim, only as aggregated effects.
type ClickEvent struct {
	ProductID string    `json:"product_id"`
	Slug      string    `json:"slug,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Country   string    `json:"country,omitempty"` // ISO 3166-1 alpha-2
	Referrer  string    `json:"referrer,omitempty"`
	ClickedAt time.Time `json:"clicked_at"`
}

// ProductStats is the per-product detail record.
type ProductStats struct {
	ProductID string           `json:"product_id"`
	Total     int64            `json:"total"`
	Devices   map[string]int64 `json:"devices"`
	Browsers  map[string]int64 `json:"browsers"`
	LastClick int64            `json:"last_click"` // unix millis, 0 if never
}

// AnalyticsSnapshot is a best-effort consistent view over all rollups.
// It is assembled from independent counters and is not transactionally
// consistent across keys; analytics reads tolerate that.
type AnalyticsSnapshot struct {
	TotalClicks int64                    `json:"total_clicks"`
	LastClick   int64                    `json:"last_click"` // unix millis
	BotClicks   int64                    `json:"bot_clicks"`
	ByDay       map[string]int64         `json:"by_day"`   // YYYY-MM-DD -> count
	BySlug      map[string]int64         `json:"by_slug"`  // slug -> count
	Devices     map[string]int64         `json:"devices"`  // device class -> count
	Browsers    map[string]int64         `json:"browsers"` // browser family -> count
	Locations   map[string]int64         `json:"locations"` // ISO2 -> count
	Referrers   map[string]int64         `json:"referrers"` // hostname -> count
	TopLinks    map[string]*ProductStats `json:"top_links"` // product id -> detail
}

// EmptySnapshot returns a zero-valued snapshot with non-nil maps.
// Returned whenever the backing store is unavailable.
func EmptySnapshot() *AnalyticsSnapshot {
	return &AnalyticsSnapshot{
		ByDay:     map[string]int64{},
		BySlug:    map[string]int64{},
		Devices:   map[string]int64{},
		Browsers:  map[string]int64{},
		Locations: map[string]int64{},
		Referrers: map[string]int64{},
		TopLinks:  map[string]*ProductStats{},
	}
}

// OwnerStats is the per-owner derived analytics view, computed by
// filtering the global rollups to the owner's slugs and products.
type OwnerStats struct {
	TotalClicks int64                    `json:"total_clicks"`
	BySlug      map[string]int64         `json:"by_slug"`
	ByDay       map[string]int64         `json:"by_day"`
	TopLinks    map[string]*ProductStats `json:"top_links"`
	Devices     map[string]int64         `json:"devices"`
	Browsers    map[string]int64         `json:"browsers"`
	Locations   map[string]int64         `json:"locations"`
	Referrers   map[string]int64         `json:"referrers"`
}

// AffiliateStats tracks referral performance for one owner.
type AffiliateStats struct {
	OwnerID  string  `json:"owner_id"`
	Clicks   int64   `json:"clicks"`
	Sales    int64   `json:"sales"`
	Earnings float64 `json:"earnings"`
}
