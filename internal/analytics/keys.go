package analytics

// Redis key families for the analytics rollups. Every click fans out
// into these counters in a single pipeline; all effects are commutative
// increments so concurrent clicks interleave safely.
const (
	keyTotalClicks = "clicks:total"
	keyLastClick   = "clicks:last"
	keyBotClicks   = "clicks:bots"
	keyByDay       = "clicks:by_day"
	keyBySlug      = "clicks:by_slug"
	keyByDevice    = "clicks:by_device"
	keyByBrowser   = "clicks:by_browser"
	keyByCountry   = "clicks:by_country"
	keyByReferrer  = "clicks:by_referrer"
	keyLeaderboard = "products:leaderboard"

	slugDaysPrefix     = "clicks:slug:"
	slugDaysSuffix     = ":days"
	productPrefix      = "product:"
	productCountrySfx  = ":countries"
	productReferrerSfx = ":referrers"
	affiliatePrefix    = "affiliate:"
)

// dayLayout is the UTC calendar-day bucket key format.
const dayLayout = "2006-01-02"

func slugDaysKey(slug string) string {
	return slugDaysPrefix + slug + slugDaysSuffix
}

func productKey(asin string) string {
	return productPrefix + asin
}

func productCountriesKey(asin string) string {
	return productPrefix + asin + productCountrySfx
}

func productReferrersKey(asin string) string {
	return productPrefix + asin + productReferrerSfx
}

func affiliateKey(ownerID string) string {
	return affiliatePrefix + ownerID
}
