package enrichment

import (
	"net/url"
	"strings"
)

// Traffic source categories returned by ClassifySource.
const (
	SourceSearch = "Search"
	SourceSocial = "Social"
	SourceAI     = "AI"
	SourceDirect = "Direct"
)

// RefererClassifier classifies traffic sources from referrer URLs using a
// fixed domain table.
type RefererClassifier struct {
	searchEngines []string
	socialMedia   []string
	aiPlatforms   []string
}

// NewRefererClassifier creates a new RefererClassifier with predefined domain lists.
func NewRefererClassifier() *RefererClassifier {
	return &RefererClassifier{
		searchEngines: []string{
			"google.com",
			"bing.com",
			"yahoo.com",
			"duckduckgo.com",
			"baidu.com",
			"yandex.ru",
			"ecosia.org",
		},
		socialMedia: []string{
			"facebook.com",
			"twitter.com",
			"x.com",
			"instagram.com",
			"linkedin.com",
			"pinterest.com",
			"reddit.com",
			"tiktok.com",
			"youtube.com",
			"threads.net",
			"mastodon.social",
		},
		aiPlatforms: []string{
			"chatgpt.com",
			"claude.ai",
			"gemini.google.com",
			"perplexity.ai",
			"copilot.microsoft.com",
		},
	}
}

// ClassifySource classifies the traffic source from a referrer URL.
// Absent, unparseable, and unmatched referrers all count as direct traffic.
func (r *RefererClassifier) ClassifySource(refererStr string) string {
	hostname := RefererDomain(refererStr)
	if hostname == "" {
		return SourceDirect
	}

	for _, domain := range r.searchEngines {
		if matchesDomain(hostname, domain) {
			return SourceSearch
		}
	}

	for _, domain := range r.socialMedia {
		if matchesDomain(hostname, domain) {
			return SourceSocial
		}
	}

	for _, domain := range r.aiPlatforms {
		if matchesDomain(hostname, domain) {
			return SourceAI
		}
	}

	return SourceDirect
}

// RefererDomain extracts the normalized hostname from a referrer URL.
// Returns "" for empty or unparseable referrers.
func RefererDomain(refererStr string) string {
	if refererStr == "" {
		return ""
	}

	parsed, err := url.Parse(refererStr)
	if err != nil {
		return ""
	}

	hostname := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(hostname, "www.")
}

func matchesDomain(hostname, domain string) bool {
	return hostname == domain || strings.HasSuffix(hostname, "."+domain)
}
