package cookies

import "strings"

// Fixed per-cookie overhead added to the byte estimate (attributes,
// flags, expiry metadata not reflected in name/value lengths).
const perCookieOverhead = 32

// Cookie is one browser cookie as reported by the collector.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// Stats is the aggregated cookie snapshot stored on a Site.
type Stats struct {
	CookiesCount         int   `json:"cookiesCount"`
	CookiesBytesEstimate int64 `json:"cookiesBytesEstimate"`
	ThirdPartyCookies    int   `json:"thirdPartyCookies"`
}

// Summarize computes cookie metrics for an origin's hostname from a full
// cookie list. Third-party detection is a heuristic domain-suffix
// comparison, deliberately not a full registrable-domain lookup.
func Summarize(hostname string, list []Cookie) Stats {
	host := strings.TrimPrefix(hostname, "www.")

	var stats Stats
	stats.CookiesCount = len(list)

	for _, c := range list {
		if isThirdParty(host, c.Domain) {
			stats.ThirdPartyCookies++
		}
		stats.CookiesBytesEstimate += int64(len(c.Name)+len(c.Value)+len(c.Domain)+len(c.Path)) + perCookieOverhead
	}

	return stats
}

// isThirdParty reports whether a cookie domain belongs to a different
// registrable domain than host: not equal, not a parent and not a child.
func isThirdParty(host, cookieDomain string) bool {
	cd := strings.TrimPrefix(strings.TrimPrefix(cookieDomain, "."), "www.")
	if cd == "" || cd == host {
		return false
	}
	if strings.HasSuffix(host, "."+cd) || strings.HasSuffix(cd, "."+host) {
		return false
	}
	return true
}
