// Package search ranks pooled articles against a free-text query.
package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"headlines/internal/dedup"
	"headlines/internal/model"
	"headlines/internal/registry"
)

const (
	searchFeeds = 10
	maxResults  = 50
	minTermLen  = 3
)

// Weights added per matching term.
const (
	titleWeight       = 10
	titleWordWeight   = 5
	descriptionWeight = 3
	sourceWeight      = 2
	categoryWeight    = 1
)

// Pooler fetches feeds concurrently and returns their merged articles.
type Pooler interface {
	Pool(ctx context.Context, feeds []model.FeedConfig) []model.Article
}

// Engine answers queries over the first feeds of a registry.
type Engine struct {
	pool  Pooler
	feeds []model.FeedConfig
	log   *slog.Logger
}

// New creates an Engine searching the first ten feeds of reg.
func New(pool Pooler, reg *registry.Registry, log *slog.Logger) *Engine {
	return &Engine{
		pool:  pool,
		feeds: reg.Head(searchFeeds),
		log:   log,
	}
}

type scored struct {
	article model.Article
	score   int
}

// Search returns articles matching query, most relevant first and newest
// first among equals, without duplicates and at most 50. A query with no
// term longer than two characters returns nil without fetching.
func (e *Engine) Search(ctx context.Context, query string) []model.Article {
	terms := Terms(query)
	if len(terms) == 0 {
		return nil
	}

	pooled := e.pool.Pool(ctx, e.feeds)
	matches := make([]scored, 0, len(pooled))
	for _, a := range pooled {
		if s := Score(a, terms); s > 0 {
			matches = append(matches, scored{article: a, score: s})
		}
	}

	slices.SortStableFunc(matches, func(x, y scored) int {
		if c := cmp.Compare(y.score, x.score); c != 0 {
			return c
		}
		return y.article.PublishedAt.Compare(x.article.PublishedAt)
	})

	ranked := make([]model.Article, len(matches))
	for i, m := range matches {
		ranked[i] = m.article
	}
	results := dedup.Articles(ranked)
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	e.log.Debug("search", "query", query, "terms", len(terms), "pooled", len(pooled), "results", len(results))
	return results
}

// Terms splits query on whitespace into lower-cased terms, dropping terms
// of two characters or fewer. Characters are runes, not bytes.
func Terms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(t) >= minTermLen {
			terms = append(terms, t)
		}
	}
	return terms
}

// Score sums the weights of every term against a. Terms must already be
// lower-cased, as Terms returns them.
func Score(a model.Article, terms []string) int {
	title := strings.ToLower(a.Title)
	words := strings.Fields(title)
	desc := strings.ToLower(a.Description)
	source := strings.ToLower(a.Source)
	category := strings.ToLower(string(a.Category))

	score := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleWeight
		}
		if slices.Contains(words, term) {
			score += titleWordWeight
		}
		if strings.Contains(desc, term) {
			score += descriptionWeight
		}
		if strings.Contains(source, term) {
			score += sourceWeight
		}
		if strings.Contains(category, term) {
			score += categoryWeight
		}
	}
	return score
}
