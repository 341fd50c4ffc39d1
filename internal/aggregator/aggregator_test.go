package aggregator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/h2non/gock"

	"headlines/internal/cache"
	"headlines/internal/fetcher"
	"headlines/internal/model"
	"headlines/internal/registry"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu       sync.Mutex
	articles map[string][]model.Article
	calls    []string
}

func (f *fakeSource) ParseFeed(_ context.Context, cfg model.FeedConfig) []model.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cfg.URL)
	return append([]model.Article(nil), f.articles[cfg.URL]...)
}

func (f *fakeSource) called() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.calls))
	for _, u := range f.calls {
		out[u] = true
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feed(name string, cat model.Category) model.FeedConfig {
	return model.FeedConfig{Name: name, URL: "https://" + name + ".example/rss", Category: cat}
}

// story builds an article published age before base.
func story(src, slug string, cat model.Category, age time.Duration) model.Article {
	return model.Article{
		ID:          slug,
		Title:       "Story " + slug,
		Link:        "https://" + src + ".example/" + slug,
		Source:      src,
		PublishedAt: base.Add(-age),
		Category:    cat,
	}
}

// stories builds n articles for src, one minute apart, newest first.
func stories(src string, cat model.Category, n int, offset time.Duration) []model.Article {
	out := make([]model.Article, n)
	for i := range out {
		out[i] = story(src, fmt.Sprintf("%s-%02d", src, i), cat, offset+time.Duration(i)*time.Minute)
	}
	return out
}

func newTestAggregator(t *testing.T, feeds []model.FeedConfig, src *fakeSource) *Aggregator {
	t.Helper()
	reg, err := registry.New(feeds)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return New(reg, src, discardLogger())
}

func links(articles []model.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Link
	}
	return out
}

func TestByCategory(t *testing.T) {
	feeds := []model.FeedConfig{
		feed("h1", model.CategoryHome),
		feed("w1", model.CategoryWorld),
		feed("h2", model.CategoryHome),
		feed("w2", model.CategoryWorld),
		feed("h3", model.CategoryHome),
		feed("h4", model.CategoryHome),
	}
	src := &fakeSource{articles: map[string][]model.Article{
		feeds[1].URL: {
			story("w1", "a", model.CategoryWorld, 3*time.Hour),
			story("w1", "b", model.CategoryWorld, time.Hour),
		},
		feeds[3].URL: {
			story("w2", "c", model.CategoryWorld, 2*time.Hour),
			// same story as w1/b under a tracking parameter
			{Title: "Story b", Link: "https://w1.example/b?utm=ref", PublishedAt: base.Add(-30 * time.Minute)},
		},
	}}
	agg := newTestAggregator(t, feeds, src)

	got := agg.ByCategory(context.Background(), model.CategoryWorld)
	want := []string{
		"https://w1.example/b?utm=ref",
		"https://w2.example/c",
		"https://w1.example/a",
	}
	if diff := cmp.Diff(want, links(got)); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestByCategoryFallsBackToHome(t *testing.T) {
	feeds := []model.FeedConfig{
		feed("h1", model.CategoryHome),
		feed("w1", model.CategoryWorld),
		feed("h2", model.CategoryHome),
		feed("h3", model.CategoryHome),
		feed("h4", model.CategoryHome),
	}
	src := &fakeSource{articles: map[string][]model.Article{}}
	agg := newTestAggregator(t, feeds, src)

	agg.ByCategory(context.Background(), model.CategorySports)

	want := map[string]bool{feeds[0].URL: true, feeds[2].URL: true, feeds[3].URL: true}
	if diff := cmp.Diff(want, src.called()); diff != "" {
		t.Errorf("fetched feeds mismatch (-want +got):\n%s", diff)
	}
}

func TestCaps(t *testing.T) {
	feeds := []model.FeedConfig{
		feed("h1", model.CategoryHome),
		feed("h2", model.CategoryHome),
		feed("h3", model.CategoryHome),
		feed("h4", model.CategoryHome),
	}
	src := &fakeSource{articles: map[string][]model.Article{
		feeds[0].URL: stories("h1", model.CategoryHome, 40, 0),
		feeds[1].URL: stories("h2", model.CategoryHome, 40, 0),
		feeds[2].URL: stories("h3", model.CategoryHome, 40, 0),
		feeds[3].URL: stories("h4", model.CategoryHome, 40, 0),
	}}
	agg := newTestAggregator(t, feeds, src)
	ctx := context.Background()

	tests := []struct {
		name string
		got  []model.Article
		want int
	}{
		{"category", agg.ByCategory(ctx, model.CategoryHome), 50},
		{"trending", agg.Trending(ctx), 30},
		{"all", agg.All(ctx), 160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, len(tt.got)); diff != "" {
				t.Errorf("count mismatch (-want +got):\n%s", diff)
			}
			for i := 1; i < len(tt.got); i++ {
				if tt.got[i].PublishedAt.After(tt.got[i-1].PublishedAt) {
					t.Fatalf("article %d newer than article %d", i, i-1)
				}
			}
		})
	}
}

func TestTrendingUsesFirstHomeFeeds(t *testing.T) {
	feeds := []model.FeedConfig{
		feed("h1", model.CategoryHome),
		feed("h2", model.CategoryHome),
		feed("b1", model.CategoryBusiness),
		feed("h3", model.CategoryHome),
		feed("h4", model.CategoryHome),
	}
	src := &fakeSource{articles: map[string][]model.Article{}}
	agg := newTestAggregator(t, feeds, src)

	agg.Trending(context.Background())

	want := map[string]bool{feeds[0].URL: true, feeds[1].URL: true, feeds[3].URL: true}
	if diff := cmp.Diff(want, src.called()); diff != "" {
		t.Errorf("fetched feeds mismatch (-want +got):\n%s", diff)
	}
}

func TestHomePage(t *testing.T) {
	feeds := []model.FeedConfig{
		feed("home", model.CategoryHome),
		feed("world", model.CategoryWorld),
		feed("usa", model.CategoryUSA),
		feed("biz", model.CategoryBusiness),
		feed("tech", model.CategoryTechnology),
	}

	homeArticles := stories("home", model.CategoryHome, 40, 0)
	// the world and business feeds republish home stories
	worldArticles := append(stories("world", model.CategoryWorld, 20, 0), homeArticles[0], homeArticles[5])
	bizArticles := append(stories("biz", model.CategoryBusiness, 15, 30*time.Second), homeArticles[10], homeArticles[35])
	techArticles := stories("tech", model.CategoryTechnology, 15, 45*time.Second)

	src := &fakeSource{articles: map[string][]model.Article{
		feeds[0].URL: homeArticles,
		feeds[1].URL: worldArticles,
		feeds[2].URL: stories("usa", model.CategoryUSA, 5, 0),
		feeds[3].URL: bizArticles,
		feeds[4].URL: techArticles,
	}}
	agg := newTestAggregator(t, feeds, src)

	data := agg.HomePage(context.Background())

	if data.HeroArticle == nil || data.Breaking == nil {
		t.Fatal("expected hero and breaking articles")
	}
	if diff := cmp.Diff(homeArticles[0].Link, data.HeroArticle.Link); diff != "" {
		t.Errorf("hero mismatch (-want +got):\n%s", diff)
	}
	if data.HeroArticle.IsBreaking {
		t.Error("hero must not be flagged breaking")
	}
	if !data.Breaking.IsBreaking || data.Breaking.Link != data.HeroArticle.Link {
		t.Errorf("breaking should be the hero flagged breaking, got %+v", *data.Breaking)
	}

	if diff := cmp.Diff(links(homeArticles[1:31]), links(data.LatestNews)); diff != "" {
		t.Errorf("latest mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(links(homeArticles[:20]), links(data.TopStories)); diff != "" {
		t.Errorf("top stories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(links(homeArticles[:30]), links(data.Trending)); diff != "" {
		t.Errorf("trending mismatch (-want +got):\n%s", diff)
	}

	shown := map[string]bool{data.HeroArticle.Link: true}
	for _, a := range data.LatestNews {
		shown[a.Link] = true
	}
	for _, a := range data.FeaturedArticles {
		if shown[a.Link] {
			t.Errorf("featured repeats shown article %s", a.Link)
		}
	}
	for _, a := range data.MoreStories {
		if shown[a.Link] {
			t.Errorf("more stories repeats shown article %s", a.Link)
		}
	}

	if diff := cmp.Diff(15, len(data.FeaturedArticles)); diff != "" {
		t.Errorf("featured count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(20, len(data.MoreStories)); diff != "" {
		t.Errorf("more stories count mismatch (-want +got):\n%s", diff)
	}

	for i := 1; i < len(data.MoreStories); i++ {
		if data.MoreStories[i].PublishedAt.After(data.MoreStories[i-1].PublishedAt) {
			t.Fatalf("more stories not sorted at %d", i)
		}
	}
}

func TestHomePageEmpty(t *testing.T) {
	agg := newTestAggregator(t, []model.FeedConfig{feed("home", model.CategoryHome)}, &fakeSource{})

	data := agg.HomePage(context.Background())
	if data.HeroArticle != nil || data.Breaking != nil {
		t.Error("expected no hero without articles")
	}
	if len(data.LatestNews) != 0 || len(data.FeaturedArticles) != 0 || len(data.MoreStories) != 0 {
		t.Errorf("expected empty sections, got %+v", data)
	}
}

const feedTemplate = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>%s</title>
<item><title>%s</title><link>%s</link><pubDate>%s</pubDate></item>
</channel></rss>`

func TestAggregateOverHTTP(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name      string
		alphaAge  time.Duration
		betaAge   time.Duration
		wantLinks []string
		wantSrc   []string
	}{
		{
			name:      "first feed newest keeps its link",
			alphaAge:  0,
			betaAge:   time.Hour,
			wantLinks: []string{"http://a/1"},
			wantSrc:   []string{"Alpha"},
		},
		{
			name:      "tracking copy newest wins",
			alphaAge:  time.Hour,
			betaAge:   0,
			wantLinks: []string{"http://a/1?utm=ref"},
			wantSrc:   []string{"Beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			client := &http.Client{Transport: http.DefaultTransport}
			gock.InterceptClient(client)
			defer gock.RestoreClient(client)

			gock.New("http://alpha.example").
				Get("/rss").
				Reply(200).
				BodyString(fmt.Sprintf(feedTemplate, "Alpha", "Harbour reopens", "http://a/1", now.Add(-tt.alphaAge).Format(time.RFC1123Z)))
			gock.New("http://beta.example").
				Get("/rss").
				Reply(200).
				BodyString(fmt.Sprintf(feedTemplate, "Beta", "Harbour reopens after storm", "http://a/1?utm=ref", now.Add(-tt.betaAge).Format(time.RFC1123Z)))
			gock.New("http://gamma.example").
				Get("/rss").
				Reply(503)

			reg, err := registry.New([]model.FeedConfig{
				{Name: "Alpha", URL: "http://alpha.example/rss", Category: model.CategoryHome},
				{Name: "Beta", URL: "http://beta.example/rss", Category: model.CategoryHome},
				{Name: "Gamma", URL: "http://gamma.example/rss", Category: model.CategoryHome},
			})
			if err != nil {
				t.Fatalf("new registry: %v", err)
			}
			log := discardLogger()
			f := fetcher.New(client, cache.NewMemory(30*time.Second), log)
			agg := New(reg, f, log)

			got := agg.ByCategory(context.Background(), model.CategoryHome)

			var links, sources []string
			for _, a := range got {
				links = append(links, a.Link)
				sources = append(sources, a.Source)
			}
			if diff := cmp.Diff(tt.wantLinks, links); diff != "" {
				t.Errorf("links mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSrc, sources); diff != "" {
				t.Errorf("sources mismatch (-want +got):\n%s", diff)
			}
			if !gock.IsDone() {
				t.Error("expected every feed to be requested")
			}
		})
	}
}

// stallingClient answers fast hosts immediately and holds requests to any
// other host until their context ends.
type stallingClient struct {
	fast map[string]string
}

func (c stallingClient) Do(req *http.Request) (*http.Response, error) {
	if body, ok := c.fast[req.URL.Host]; ok {
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(body))}, nil
	}
	<-req.Context().Done()
	return nil, req.Context().Err()
}

func TestSlowFeedDoesNotHoldSiblings(t *testing.T) {
	now := time.Now().UTC()
	client := stallingClient{fast: map[string]string{
		"fast.example": fmt.Sprintf(feedTemplate, "Fast", "Bridge opens", "http://fast.example/1", now.Add(-time.Hour).Format(time.RFC1123Z)),
	}}

	reg, err := registry.New([]model.FeedConfig{
		{Name: "Slow", URL: "http://slow.example/rss", Category: model.CategoryWorld},
		{Name: "Fast", URL: "http://fast.example/rss", Category: model.CategoryWorld},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	log := discardLogger()
	f := fetcher.New(client, cache.NewMemory(30*time.Second), log)
	f.SetTimeout(100 * time.Millisecond)
	agg := New(reg, f, log)

	start := time.Now()
	got := agg.ByCategory(context.Background(), model.CategoryWorld)
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("ByCategory took %v, want well under a second", elapsed)
	}
	var links []string
	for _, a := range got {
		links = append(links, a.Link)
	}
	if diff := cmp.Diff([]string{"http://fast.example/1"}, links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}
