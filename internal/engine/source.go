package engine

import (
	"net/url"
	"strings"
)

var sourceHosts = []struct {
	source string
	hosts  []string
}{
	{"reddit", []string{"reddit.com", "redd.it"}},
	{"twitter", []string{"twitter.com", "x.com", "t.co"}},
	{"facebook", []string{"facebook.com", "fb.com"}},
	{"t-mobile", []string{"t-mobile.com"}},
}

// InferSource guesses which platform a post came from by its URL host, for
// picking an icon. Unknown or unparseable URLs yield fallback.
func InferSource(rawURL, fallback string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return fallback
	}

	host := strings.ToLower(u.Hostname())
	for _, candidate := range sourceHosts {
		for _, h := range candidate.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return candidate.source
			}
		}
	}
	return fallback
}
