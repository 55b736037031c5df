package utils

import "net/url"

// ParseOrigin validates and normalizes a raw origin (or any URL) into a
// scheme+host+port origin plus its hostname. Invalid input yields an
// error, never a panic; callers treat failure as "cannot process".
func ParseOrigin(raw string) (origin, hostname string, err error) {
	if raw == "" {
		return "", "", ErrEmptyOrigin
	}

	u, parseErr := url.Parse(raw)
	if parseErr != nil {
		return "", "", ErrInvalidOrigin
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", ErrInvalidScheme
	}
	if u.Host == "" {
		return "", "", ErrEmptyHost
	}

	return u.Scheme + "://" + u.Host, u.Hostname(), nil
}

// OriginOf derives the origin of an arbitrary URL, returning "" when the
// URL cannot be processed. Used for initiator-based attribution where a
// miss is dropped rather than reported.
func OriginOf(rawURL string) string {
	origin, _, err := ParseOrigin(rawURL)
	if err != nil {
		return ""
	}
	return origin
}

// HostnameOf extracts the hostname of an origin, "" on failure.
func HostnameOf(origin string) string {
	_, hostname, err := ParseOrigin(origin)
	if err != nil {
		return ""
	}
	return hostname
}
