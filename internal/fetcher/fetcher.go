// Package fetcher downloads feeds and turns their items into articles.
//
// Fetching never fails from the caller's point of view: network errors,
// bad statuses, empty or broken documents and even panics while parsing
// all degrade to the last cached articles of the feed, or to nothing.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"headlines/internal/cache"
	"headlines/internal/extract"
	"headlines/internal/model"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	acceptHeader   = "application/rss+xml, application/xml, text/xml, */*"
	maxBodyBytes   = 5 * 1024 * 1024
	maxDescription = 300

	// DefaultTimeout bounds a single feed request.
	DefaultTimeout = 8 * time.Second
	// DefaultMaxAge drops items published longer ago than this.
	DefaultMaxAge = 4 * 24 * time.Hour
	// DefaultMaxItems caps the items read from one document.
	DefaultMaxItems = 100
)

// ErrNoItems reports a document that produced no usable articles.
var ErrNoItems = errors.New("feed yielded no items")

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is the outcome of fetching one feed. Degraded results carry the
// reason and whatever the cache could offer instead of fresh articles.
type Result struct {
	Articles  []model.Article
	Degraded  bool
	FromCache bool
	Reason    error
}

// Fetcher downloads and parses feeds, backed by a cache.Store.
type Fetcher struct {
	client   HTTPClient
	store    cache.Store
	log      *slog.Logger
	now      func() time.Time
	timeout  time.Duration
	maxAge   time.Duration
	maxItems int
	parsers  map[model.FeedFormat]ItemParser
}

// New creates a Fetcher with default limits.
func New(client HTTPClient, store cache.Store, log *slog.Logger) *Fetcher {
	return &Fetcher{
		client:   client,
		store:    store,
		log:      log,
		now:      time.Now,
		timeout:  DefaultTimeout,
		maxAge:   DefaultMaxAge,
		maxItems: DefaultMaxItems,
		parsers: map[model.FeedFormat]ItemParser{
			model.FormatRSS:  TagParser{},
			model.FormatAtom: GofeedParser{},
		},
	}
}

// SetTimeout overrides the per-feed request deadline.
func (f *Fetcher) SetTimeout(d time.Duration) {
	f.timeout = d
}

// SetMaxAge overrides the recency cutoff.
func (f *Fetcher) SetMaxAge(d time.Duration) {
	f.maxAge = d
}

// SetClock overrides the time source (useful for testing).
func (f *Fetcher) SetClock(now func() time.Time) {
	f.now = now
}

// ParseFeed returns the articles of cfg, fresh or cached. It never fails;
// an empty result means no data is available for the feed.
func (f *Fetcher) ParseFeed(ctx context.Context, cfg model.FeedConfig) []model.Article {
	return f.Fetch(ctx, cfg).Articles
}

// Fetch returns the articles of cfg along with how they were obtained.
func (f *Fetcher) Fetch(ctx context.Context, cfg model.FeedConfig) (res Result) {
	cached, hasCached := f.store.Get(cfg.URL)
	if hasCached && f.store.Fresh(cached) {
		return Result{Articles: cached.Articles, FromCache: true}
	}

	fallback := func(reason error) Result {
		r := Result{Degraded: true, Reason: reason}
		if hasCached {
			r.Articles = cached.Articles
			r.FromCache = true
		}
		return r
	}

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("parse %s: %v", cfg.Name, p)
			f.log.Error("unexpected feed failure", "feed", cfg.Name, "error", err)
			res = fallback(err)
		}
	}()

	body, err := f.download(ctx, cfg.URL)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			f.log.Warn("feed offline", "feed", cfg.Name, "status", se.Code)
		} else {
			f.log.Warn("feed unreachable", "feed", cfg.Name, "error", err)
		}
		return fallback(err)
	}

	parser, ok := f.parsers[cfg.Format]
	if !ok {
		parser = f.parsers[model.FormatRSS]
	}
	items, err := parser.Parse(body, f.maxItems)
	if err != nil {
		f.log.Warn("feed unparsable", "feed", cfg.Name, "error", err)
		return fallback(fmt.Errorf("parse %s: %w", cfg.Name, err))
	}

	articles := f.normalize(cfg, items)
	if len(articles) == 0 {
		f.log.Debug("feed empty", "feed", cfg.Name, "cached", hasCached)
		return fallback(ErrNoItems)
	}

	f.store.Set(cfg.URL, articles)
	return Result{Articles: articles}
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return toUTF8(body, resp.Header.Get("Content-Type")), nil
}

// normalize applies the recency cutoff and mandatory field rules and builds
// articles in document order.
func (f *Fetcher) normalize(cfg model.FeedConfig, items []Item) []model.Article {
	now := f.now()
	cutoff := now.Add(-f.maxAge)

	articles := make([]model.Article, 0, len(items))
	for _, it := range items {
		published := it.Published
		if published.IsZero() {
			published = now
		}
		if published.Before(cutoff) {
			continue
		}

		title := extract.StripHTML(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}

		articles = append(articles, model.Article{
			ID:          ArticleID(link),
			Title:       title,
			Description: truncate(extract.StripHTML(it.Description), maxDescription),
			Link:        link,
			Image:       it.Image,
			Video:       it.Video,
			Source:      cfg.Name,
			PublishedAt: published,
			Category:    cfg.Category,
		})
	}
	return articles
}

// ArticleID derives a stable identifier from an article link: a name-based
// UUID, so the same link always yields the same id.
func ArticleID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimSpace(link))).String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
