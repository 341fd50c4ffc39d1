// Package aggregator merges the articles of many feeds into the views the
// front ends show: a category list, trending, everything, and the composite
// home page.
package aggregator

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"headlines/internal/dedup"
	"headlines/internal/model"
	"headlines/internal/registry"
)

const (
	categoryLimit = 50
	trendingLimit = 30
	trendingFeeds = 3
	fallbackFeeds = 3

	latestLimit   = 30
	topLimit      = 20
	featuredLimit = 15
	moreLimit     = 20
)

// FeedSource returns the articles of a single feed. It must not fail: an
// unavailable feed yields cached articles or none.
type FeedSource interface {
	ParseFeed(ctx context.Context, cfg model.FeedConfig) []model.Article
}

// Aggregator fetches registry feeds concurrently and ranks the result.
type Aggregator struct {
	feeds  *registry.Registry
	source FeedSource
	log    *slog.Logger
}

// New creates an Aggregator over the feeds of reg.
func New(reg *registry.Registry, source FeedSource, log *slog.Logger) *Aggregator {
	return &Aggregator{
		feeds:  reg,
		source: source,
		log:    log,
	}
}

// Registry returns the feeds the aggregator reads from.
func (a *Aggregator) Registry() *registry.Registry {
	return a.feeds
}

// Pool fetches every feed in its own goroutine and concatenates the
// results in the order of feeds. It returns once every feed has settled.
func (a *Aggregator) Pool(ctx context.Context, feeds []model.FeedConfig) []model.Article {
	results := make([][]model.Article, len(feeds))

	// Fetches never return an error, so a plain group is enough: one slow
	// feed cannot cancel its siblings.
	var g errgroup.Group
	for i, cfg := range feeds {
		g.Go(func() error {
			results[i] = a.source.ParseFeed(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()

	var total int
	for _, r := range results {
		total += len(r)
	}
	pooled := make([]model.Article, 0, total)
	for _, r := range results {
		pooled = append(pooled, r...)
	}
	return pooled
}

// ByCategory returns the newest distinct articles of cat, at most 50. A
// category no feed serves falls back to the first home feeds.
func (a *Aggregator) ByCategory(ctx context.Context, cat model.Category) []model.Article {
	feeds := a.feeds.ByCategory(cat)
	if len(feeds) == 0 {
		a.log.Debug("no feeds for category, using home", "category", cat)
		feeds = a.feeds.Home(fallbackFeeds)
	}
	return limit(a.collect(ctx, feeds), categoryLimit)
}

// Trending returns the newest distinct articles of the first few home
// feeds, at most 30.
func (a *Aggregator) Trending(ctx context.Context) []model.Article {
	return limit(a.collect(ctx, a.feeds.Home(trendingFeeds)), trendingLimit)
}

// All returns the distinct articles of every configured feed.
func (a *Aggregator) All(ctx context.Context) []model.Article {
	return a.collect(ctx, a.feeds.All())
}

func (a *Aggregator) collect(ctx context.Context, feeds []model.FeedConfig) []model.Article {
	articles := a.Pool(ctx, feeds)
	SortByRecency(articles)
	out := dedup.Articles(articles)
	a.log.Debug("aggregated feeds", "feeds", len(feeds), "articles", len(articles), "distinct", len(out))
	return out
}

// HomePage builds the landing page. The home, world, business and
// technology groups are fetched concurrently. Featured and more stories
// never repeat the hero or a latest article; top stories and trending may.
func (a *Aggregator) HomePage(ctx context.Context) model.HomePageData {
	groups := [][]model.Category{
		{model.CategoryHome},
		{model.CategoryWorld, model.CategoryUSA, model.CategoryChina, model.CategoryIndia},
		{model.CategoryBusiness},
		{model.CategoryTechnology},
	}
	pools := make([][]model.Article, len(groups))

	var g errgroup.Group
	for i, cats := range groups {
		g.Go(func() error {
			articles := a.Pool(ctx, a.feeds.ByCategory(cats...))
			SortByRecency(articles)
			pools[i] = dedup.ByLink(articles)
			return nil
		})
	}
	_ = g.Wait()

	home, world, business, tech := pools[0], pools[1], pools[2], pools[3]

	data := model.HomePageData{
		LatestNews: window(home, 1, 1+latestLimit),
		TopStories: window(home, 0, topLimit),
		Trending:   window(home, 0, trendingLimit),
	}

	shown := make(map[string]bool, len(data.LatestNews)+1)
	if len(home) > 0 {
		hero := home[0]
		breaking := hero
		breaking.IsBreaking = true
		data.HeroArticle = &hero
		data.Breaking = &breaking
		shown[hero.Link] = true
	}
	for _, art := range data.LatestNews {
		shown[art.Link] = true
	}

	data.FeaturedArticles = limit(exclude(world, shown), featuredLimit)

	more := dedup.ByLink(append(slices.Clone(business), tech...))
	more = exclude(more, shown)
	SortByRecency(more)
	data.MoreStories = limit(more, moreLimit)

	a.log.Debug("built home page",
		"home", len(home), "world", len(world), "business", len(business), "technology", len(tech))
	return data
}

// SortByRecency orders articles newest first. Equal timestamps keep their
// relative order.
func SortByRecency(articles []model.Article) {
	slices.SortStableFunc(articles, func(x, y model.Article) int {
		return y.PublishedAt.Compare(x.PublishedAt)
	})
}

func exclude(articles []model.Article, links map[string]bool) []model.Article {
	out := make([]model.Article, 0, len(articles))
	for _, art := range articles {
		if !links[art.Link] {
			out = append(out, art)
		}
	}
	return out
}

func limit(articles []model.Article, n int) []model.Article {
	if len(articles) > n {
		return articles[:n]
	}
	return articles
}

// window copies articles[lo:hi], clamped to the slice bounds.
func window(articles []model.Article, lo, hi int) []model.Article {
	lo = min(lo, len(articles))
	hi = min(hi, len(articles))
	out := make([]model.Article, hi-lo)
	copy(out, articles[lo:hi])
	return out
}
