package analytics

import "testing"

func TestUAClassifier_Device(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	tests := []struct {
		name string
		ua   string
		want DeviceClass
	}{
		{
			name: "android phone",
			ua:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36",
			want: DeviceAndroid,
		},
		{
			name: "android beats linux marker",
			ua:   "Mozilla/5.0 (Linux; U; Android 4.4.2)",
			want: DeviceAndroid,
		},
		{
			name: "iphone",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15",
			want: DeviceIOS,
		},
		{
			name: "ipad",
			ua:   "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15",
			want: DeviceIOS,
		},
		{
			name: "ipod",
			ua:   "Mozilla/5.0 (iPod touch; CPU iPhone OS 15_0 like Mac OS X)",
			want: DeviceIOS,
		},
		{
			name: "mac desktop",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15",
			want: DeviceDesktop,
		},
		{
			name: "windows desktop",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
			want: DeviceDesktop,
		},
		{
			name: "linux desktop",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: DeviceDesktop,
		},
		{
			name: "case insensitive",
			ua:   "MOZILLA/5.0 (IPHONE; CPU IPHONE OS 17_0)",
			want: DeviceIOS,
		},
		{
			name: "empty",
			ua:   "",
			want: DeviceOther,
		},
		{
			name: "unrecognized",
			ua:   "SomeSmartTV/1.0",
			want: DeviceOther,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Device(tt.ua); got != tt.want {
				t.Errorf("Device(%q) = %s, want %s", tt.ua, got, tt.want)
			}
		})
	}
}

func TestUAClassifier_Browser(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	tests := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "instagram in-app beats safari token",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Instagram 300.0.0.0 Safari",
			want: BrowserInstagram,
		},
		{
			name: "facebook fban",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) [FBAN/FBIOS;FBAV/400.0]",
			want: BrowserFacebook,
		},
		{
			name: "facebook fbav",
			ua:   "Mozilla/5.0 (Linux; Android 13) [FBAV/400.0.0.0]",
			want: BrowserFacebook,
		},
		{
			name: "chrome beats safari token",
			ua:   "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
			want: BrowserChrome,
		},
		{
			name: "safari without chrome",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15",
			want: BrowserSafari,
		},
		{
			name: "firefox",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: BrowserFirefox,
		},
		{
			name: "unknown",
			ua:   "SomeSmartTV/1.0",
			want: BrowserOther,
		},
		{
			name: "empty",
			ua:   "",
			want: BrowserOther,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Browser(tt.ua); got != tt.want {
				t.Errorf("Browser(%q) = %s, want %s", tt.ua, got, tt.want)
			}
		})
	}
}
