// Package resolver turns a product reference into platform-specific
// destination URIs and drives the app-try/web-fallback navigation race.
package resolver

import (
	"fmt"
	"net/url"
)

const (
	// androidPackage is the Amazon shopping app package name embedded
	// in the Android intent URI.
	androidPackage = "com.amazon.mShop.android.shopping"

	// iosScheme is the Amazon app custom URL scheme on iOS.
	iosScheme = "com.amazon.mobile.shopping.web"
)

// Destinations are the three navigation forms for one product link.
type Destinations struct {
	// Intent is the Android OS-level intent URI. The OS resolves
	// app-vs-browser itself, so no fallback timer is needed there.
	Intent string
	// AppScheme is the iOS custom-scheme URI.
	AppScheme string
	// Web is the browser fallback URL with the affiliate tag appended.
	Web string
}

// countryDomains maps an ISO country code to the Amazon region domain.
var countryDomains = map[string]string{
	"US": "com",
	"GB": "co.uk",
	"DE": "de",
	"FR": "fr",
	"IT": "it",
	"ES": "es",
	"NL": "nl",
	"SE": "se",
	"PL": "pl",
	"CA": "ca",
	"MX": "com.mx",
	"BR": "com.br",
	"JP": "co.jp",
	"IN": "in",
	"SG": "com.sg",
	"AU": "com.au",
	"AE": "ae",
	"SA": "sa",
}

// DomainForCountry returns the Amazon domain for a country code, or
// empty when the marketplace is unknown.
func DomainForCountry(country string) string {
	return countryDomains[country]
}

// BuildDestinations constructs all three URI variants for a product.
// domain defaults to "com" and the tag is omitted when empty.
func BuildDestinations(asin, tag, domain string) Destinations {
	if domain == "" {
		domain = "com"
	}

	path := "/dp/" + asin
	query := ""
	if tag != "" {
		query = "?tag=" + url.QueryEscape(tag)
	}

	web := fmt.Sprintf("https://www.amazon.%s%s%s", domain, path, query)
	appScheme := fmt.Sprintf("%s://amazon.%s%s%s", iosScheme, domain, path, query)
	intent := fmt.Sprintf(
		"intent://www.amazon.%s%s%s#Intent;scheme=https;package=%s;S.browser_fallback_url=%s;end",
		domain, path, query, androidPackage, url.QueryEscape(web),
	)

	return Destinations{
		Intent:    intent,
		AppScheme: appScheme,
		Web:       web,
	}
}
