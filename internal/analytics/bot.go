package analytics

import (
	"strings"

	"github.com/mssola/useragent"
)

// Substrings matched case-insensitively against the User-Agent.
var botSignatures = []string{
	// Generic patterns
	"bot",
	"spider",
	"crawl",

	// Link-preview / unfurler bots
	"facebookexternalhit",
	"facebot",
	"whatsapp",
	"slackbot",
	"telegrambot",
	"applebot",
	"twitterbot",
	"linkedinbot",
	"preview",

	// HTTP client libraries (not real browsers)
	"go-http-client/",
	"curl/",
	"wget/",
	"python-requests/",
	"python-urllib/",
	"okhttp/",
	"java/",

	// Headless / renderers
	"headlesschrome/",
	"phantomjs",
	"chrome-lighthouse",
}

// IsBot reports whether a user-agent looks like a crawler or preview
// fetcher rather than a human click. Bot hits are counted separately
// and excluded from the rollups so social-media unfurlers don't inflate
// click totals.
func IsBot(rawUA string) bool {
	if rawUA == "" {
		return false
	}

	ua := strings.ToLower(rawUA)
	for _, sig := range botSignatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}

	return useragent.New(rawUA).Bot()
}
