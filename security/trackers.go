package security

import (
	"bufio"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Matcher holds the known tracking-domain rule set and answers whether a
// request URL hits it. A URL matches when its hostname equals a listed
// domain or is a subdomain of one.
type Matcher struct {
	domains map[string]struct{}
}

// NewMatcher builds a matcher from an in-memory domain list.
func NewMatcher(domains []string) *Matcher {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(d, ".")))
		if d == "" {
			continue
		}
		set[d] = struct{}{}
	}
	return &Matcher{domains: set}
}

// LoadMatcher reads a newline-delimited tracker domain list. Blank lines
// and lines starting with '#' are skipped. The list file is produced by
// an external fetch pipeline.
func LoadMatcher(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	log.Info().Int("domains", len(domains)).Str("path", path).Msg("Tracker domain list loaded")
	return NewMatcher(domains), nil
}

// Size returns the number of domains in the rule set.
func (m *Matcher) Size() int {
	return len(m.domains)
}

// MatchURL reports whether the request URL targets a known tracker
// domain.
func (m *Matcher) MatchURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	for {
		if _, ok := m.domains[host]; ok {
			return true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			return false
		}
		host = host[dot+1:]
	}
}
