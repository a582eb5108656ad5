package record

import (
	"net/url"
	"strings"
)

// highTrustPublishers are wire services, papers of record and regulators.
var highTrustPublishers = []string{
	"reuters", "associated press", "ap news", "bloomberg", "financial times",
	"wall street journal", "the economist", "bbc", "new york times",
	"washington post", "the guardian", "nikkei", "le monde", "der spiegel",
	"occrp", "icij",
}

// lowTrustHosts are user-generated or self-published platforms.
var lowTrustHosts = []string{
	"medium.com", "substack.com", "blogspot.", "wordpress.com", "reddit.com",
	"tumblr.com", "quora.com", "prnewswire.com", "globenewswire.com",
}

// highTrustSuffixes are domains only governments and intergovernmental bodies can hold.
var highTrustSuffixes = []string{".gov", ".gov.uk", ".gc.ca", ".europa.eu", ".int", ".mil"}

// TierFor assigns a credibility tier from the publisher name and article URL.
func TierFor(publisher, rawURL string) Credibility {
	host := hostOf(rawURL)
	for _, suffix := range highTrustSuffixes {
		if host != "" && (strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, ".")) {
			return CredibilityHigh
		}
	}

	name := strings.ToLower(publisher)
	for _, p := range highTrustPublishers {
		if strings.Contains(name, p) {
			return CredibilityHigh
		}
	}

	for _, h := range lowTrustHosts {
		if strings.Contains(host, h) || strings.Contains(name, h) {
			return CredibilityLow
		}
	}

	return CredibilityMedium
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}
