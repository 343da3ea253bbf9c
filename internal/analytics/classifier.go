// Package analytics provides click ingestion fan-out and rollup reads.
package analytics

import "strings"

// DeviceClass is the coarse platform classification of a click.
type DeviceClass string

const (
	DeviceAndroid DeviceClass = "android"
	DeviceIOS     DeviceClass = "ios"
	DeviceDesktop DeviceClass = "desktop"
	DeviceOther   DeviceClass = "other"
)

// Browser family labels.
const (
	BrowserInstagram = "Instagram"
	BrowserFacebook  = "Facebook"
	BrowserChrome    = "Chrome"
	BrowserSafari    = "Safari"
	BrowserFirefox   = "Firefox"
	BrowserEdge      = "Edge"
	BrowserOther     = "Other"
)

// Classifier derives device class and browser family from a raw
// user-agent string. It is a substring heuristic, not a guarantee:
// browsers impersonating other platforms will misclassify. Downstream
// dashboards assume this exact priority order, so keep it stable.
type Classifier interface {
	Device(userAgent string) DeviceClass
	Browser(userAgent string) string
}

// UAClassifier is the default substring-matching Classifier.
type UAClassifier struct{}

// NewClassifier returns the default user-agent classifier.
func NewClassifier() *UAClassifier {
	return &UAClassifier{}
}

// Device classifies the platform. First match wins: the android marker
// beats desktop-OS markers, so "Android ... Linux" counts as android.
func (c *UAClassifier) Device(userAgent string) DeviceClass {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "android"):
		return DeviceAndroid
	case strings.Contains(ua, "iphone"),
		strings.Contains(ua, "ipad"),
		strings.Contains(ua, "ipod"):
		return DeviceIOS
	case strings.Contains(ua, "mac"),
		strings.Contains(ua, "windows"),
		strings.Contains(ua, "linux"):
		return DeviceDesktop
	default:
		return DeviceOther
	}
}

// Browser classifies the browser family. In-app browsers take priority
// over generic engine tokens; Safari only matches when Chrome does not,
// since Chrome UAs also carry the Safari token.
func (c *UAClassifier) Browser(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "instagram"):
		return BrowserInstagram
	case strings.Contains(ua, "fban"), strings.Contains(ua, "fbav"):
		return BrowserFacebook
	case strings.Contains(ua, "chrome"):
		return BrowserChrome
	case strings.Contains(ua, "safari"):
		return BrowserSafari
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "edge"):
		return BrowserEdge
	default:
		return BrowserOther
	}
}
