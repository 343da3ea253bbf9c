package geo

// timezoneCountries maps common IANA timezone names to countries.
// Coarse by nature: a timezone only narrows geography, it does not
// prove it. Used as the middle rung of the resolution chain when the
// IP lookup yields nothing.
var timezoneCountries = map[string]string{
	// Americas
	"America/New_York":    "US",
	"America/Chicago":     "US",
	"America/Denver":      "US",
	"America/Phoenix":     "US",
	"America/Los_Angeles": "US",
	"America/Anchorage":   "US",
	"Pacific/Honolulu":    "US",
	"America/Toronto":     "CA",
	"America/Vancouver":   "CA",
	"America/Edmonton":    "CA",
	"America/Winnipeg":    "CA",
	"America/Halifax":     "CA",
	"America/St_Johns":    "CA",
	"America/Mexico_City": "MX",
	"America/Sao_Paulo":   "BR",
	"America/Bahia":       "BR",
	"America/Manaus":      "BR",

	// Europe
	"Europe/London":     "GB",
	"Europe/Dublin":     "IE",
	"Europe/Paris":      "FR",
	"Europe/Berlin":     "DE",
	"Europe/Madrid":     "ES",
	"Europe/Rome":       "IT",
	"Europe/Amsterdam":  "NL",
	"Europe/Brussels":   "BE",
	"Europe/Vienna":     "AT",
	"Europe/Zurich":     "CH",
	"Europe/Stockholm":  "SE",
	"Europe/Oslo":       "NO",
	"Europe/Copenhagen": "DK",
	"Europe/Helsinki":   "FI",
	"Europe/Warsaw":     "PL",
	"Europe/Lisbon":     "PT",

	// Asia-Pacific
	"Asia/Tokyo":       "JP",
	"Asia/Seoul":       "KR",
	"Asia/Shanghai":    "CN",
	"Asia/Hong_Kong":   "HK",
	"Asia/Singapore":   "SG",
	"Asia/Kolkata":     "IN",
	"Asia/Dubai":       "AE",
	"Asia/Riyadh":      "SA",
	"Australia/Sydney": "AU",
	"Australia/Perth":  "AU",
	"Pacific/Auckland": "NZ",
}
