package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"headlines/internal/model"
	"headlines/internal/registry"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakePool struct {
	articles []model.Article
	calls    int
	feeds    int
}

func (p *fakePool) Pool(_ context.Context, feeds []model.FeedConfig) []model.Article {
	p.calls++
	p.feeds = len(feeds)
	return p.articles
}

func newTestEngine(t *testing.T, pool *fakePool, nFeeds int) *Engine {
	t.Helper()
	feeds := make([]model.FeedConfig, nFeeds)
	for i := range feeds {
		feeds[i] = model.FeedConfig{
			Name:     "Feed",
			URL:      fmt.Sprintf("https://feeds.example/%d", i),
			Category: model.CategoryHome,
		}
	}
	reg, err := registry.New(feeds)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return New(pool, reg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Election Results", []string{"election", "results"}},
		{"  the UK and EU  ", []string{"the", "and"}},
		{"a an of", nil},
		{"", nil},
		{"ÉLAN vital", []string{"élan", "vital"}},
		{"éa 東京 ünï", []string{"ünï"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Terms(tt.query)); diff != "" {
				t.Errorf("Terms mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScore(t *testing.T) {
	a := model.Article{
		Title:       "Elections: results and turnout",
		Description: "Counting continues after the election.",
		Source:      "BBC World",
		Category:    model.CategoryWorld,
	}
	tests := []struct {
		name  string
		terms []string
		want  int
	}{
		{"title substring only", []string{"election"}, 10 + 3},
		{"exact title word", []string{"turnout"}, 10 + 5},
		{"description only", []string{"counting"}, 3},
		{"source", []string{"bbc"}, 2},
		{"category and source", []string{"world"}, 2 + 1},
		{"no match", []string{"football"}, 0},
		{"terms add up", []string{"turnout", "bbc"}, 15 + 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Score(a, tt.terms)); diff != "" {
				t.Errorf("Score mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchRanking(t *testing.T) {
	pool := &fakePool{articles: []model.Article{
		{Title: "Weather warning", Description: "Storms before the election", Link: "https://x.example/1", PublishedAt: base},
		{Title: "Election day arrives", Link: "https://x.example/2", PublishedAt: base.Add(-2 * time.Hour)},
		{Title: "Sports roundup", Link: "https://x.example/3", PublishedAt: base},
		{Title: "Election night live", Link: "https://x.example/4", PublishedAt: base.Add(-time.Hour)},
		{Title: "Election night live", Link: "https://y.example/4", PublishedAt: base.Add(-3 * time.Hour)},
	}}
	e := newTestEngine(t, pool, 3)

	got := e.Search(context.Background(), "election")

	want := []string{"https://x.example/4", "https://x.example/2", "https://x.example/1"}
	var gotLinks []string
	for _, a := range got {
		gotLinks = append(gotLinks, a.Link)
	}
	if diff := cmp.Diff(want, gotLinks); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchShortQuerySkipsFetch(t *testing.T) {
	pool := &fakePool{articles: []model.Article{{Title: "an ox", Link: "https://x.example/1"}}}
	e := newTestEngine(t, pool, 1)

	if got := e.Search(context.Background(), "an ox"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if pool.calls != 0 {
		t.Errorf("expected no fetch, got %d", pool.calls)
	}
}

func TestSearchLimits(t *testing.T) {
	articles := make([]model.Article, 80)
	for i := range articles {
		articles[i] = model.Article{
			Title:       fmt.Sprintf("Budget vote %d", i),
			Link:        fmt.Sprintf("https://x.example/%d", i),
			PublishedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	pool := &fakePool{articles: articles}
	e := newTestEngine(t, pool, 12)

	got := e.Search(context.Background(), "budget")
	if diff := cmp.Diff(50, len(got)); diff != "" {
		t.Errorf("result count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(10, pool.feeds); diff != "" {
		t.Errorf("searched feed count mismatch (-want +got):\n%s", diff)
	}
}
