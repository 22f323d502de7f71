package search

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// deniedDomains are sites that never carry usable reference articles:
// social networks, video platforms, encyclopedias and code hosting.
var deniedDomains = []string{
	"gstatic.com", "googleapis.com", "googleusercontent.com",
	"youtube.com", "youtu.be", "vimeo.com",
	"facebook.com", "twitter.com", "x.com", "instagram.com", "pinterest.com",
	"reddit.com", "linkedin.com", "tiktok.com", "quora.com",
	"wikipedia.org", "wikimedia.org", "wikihow.com",
	"github.com", "gitlab.com", "bitbucket.org",
}

var articleIndicators = []string{"blog", "article", "post", "news", "guide", "insight", "stories", "learn"}

var extensionRe = regexp.MustCompile(`\.\w+$`)

// Denied reports whether rawURL belongs to a denylisted domain or to Google itself.
func Denied(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	if host == "google.com" || strings.HasPrefix(host, "google.") || strings.Contains(host, ".google.") {
		return true
	}
	for _, domain := range deniedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// dedupeKey normalizes a URL so trivially different spellings of the same
// page compare equal.
func dedupeKey(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// HasArticleIndicator reports whether a candidate looks like a blog post or article.
func HasArticleIndicator(r Result) bool {
	haystack := strings.ToLower(r.URL + " " + r.Title + " " + r.Snippet)
	for _, ind := range articleIndicators {
		if strings.Contains(haystack, ind) {
			return true
		}
	}
	return false
}

// TitleFromURL derives a readable title from the last path segment of rawURL,
// e.g. "/blog/my-great-post" becomes "My Great Post". It returns rawURL when
// nothing usable is left.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	var last string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			last = seg
		}
	}
	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}
	last = extensionRe.ReplaceAllString(last, "")
	last = strings.NewReplacer("-", " ", "_", " ").Replace(last)

	words := strings.Fields(last)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	if len(words) == 0 {
		return rawURL
	}
	return strings.Join(words, " ")
}
