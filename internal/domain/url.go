package domain

import (
	"net/url"
	"strings"
)

// NormalizeURL strips the fragment and the query string.
// Example: "https://a.com/x?y=1#top" -> "https://a.com/x"
func NormalizeURL(raw string) string {
	base, _, _ := strings.Cut(raw, "#")
	base, _, _ = strings.Cut(base, "?")
	return base
}

// Hostname returns the lowercased host of raw without port.
// It reports false when raw is not an absolute URL with a host.
func Hostname(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}
