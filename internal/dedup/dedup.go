// Package dedup removes repeated stories from a merged article pool.
package dedup

import (
	"net/url"
	"regexp"
	"strings"

	"headlines/internal/model"
)

var (
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Articles drops every article matching an earlier one by trimmed link,
// normalized link or normalized headline. The first occurrence wins, so
// callers pass articles already in preference order.
func Articles(articles []model.Article) []model.Article {
	seenLinks := make(map[string]bool, len(articles))
	seenURLs := make(map[string]bool, len(articles))
	seenHeadlines := make(map[string]bool, len(articles))

	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		link := strings.TrimSpace(a.Link)
		normURL := NormalizeLink(link)
		// A title without letters or digits has no headline signature.
		headline := NormalizeHeadline(a.Title)

		if seenLinks[link] || seenURLs[normURL] || (headline != "" && seenHeadlines[headline]) {
			continue
		}

		seenLinks[link] = true
		seenURLs[normURL] = true
		if headline != "" {
			seenHeadlines[headline] = true
		}
		out = append(out, a)
	}
	return out
}

// ByLink keeps the first article for each exact link.
func ByLink(articles []model.Article) []model.Article {
	seen := make(map[string]bool, len(articles))
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if seen[a.Link] {
			continue
		}
		seen[a.Link] = true
		out = append(out, a)
	}
	return out
}

// NormalizeLink reduces link to lower-cased scheme, host and path without a
// trailing slash. Query strings and fragments are dropped so tracking
// parameters do not make two copies of a story look distinct. Links that
// are not absolute URLs are only trimmed and lower-cased.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(link)
	}
	s := strings.ToLower(u.Scheme + "://" + u.Host + u.EscapedPath())
	return strings.TrimSuffix(s, "/")
}

// NormalizeHeadline lower-cases title, strips punctuation and collapses
// whitespace.
func NormalizeHeadline(title string) string {
	s := punctRe.ReplaceAllString(strings.ToLower(title), "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
