package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"headlines/internal/model"
	"headlines/internal/render"
)

const (
	listLimit     = 10
	homeLatest    = 5
	homeFeatured  = 3
	maxTitleWidth = 90
)

// FormatPush formats an article pushed to a subscribed chat.
func FormatPush(sub model.Subscription, a model.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s", sub.Category.Label())
	if sub.Query != "" {
		fmt.Fprintf(&b, ": %s", sub.Query)
	}
	fmt.Fprintf(&b, "] %s\n\n", a.Source)
	b.WriteString(a.Title)
	if a.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(a.Description)
	}
	if a.Link != "" {
		b.WriteString("\n\n")
		b.WriteString(a.Link)
	}
	return b.String()
}

// FormatArticleList formats up to ten articles under a heading, with the
// age of each relative to now.
func FormatArticleList(heading string, articles []model.Article, now time.Time) string {
	if len(articles) == 0 {
		return fmt.Sprintf("%s\n\nNo headlines right now. Try again in a minute.", heading)
	}
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	for i, a := range articles {
		if i == listLimit {
			fmt.Fprintf(&b, "\n...and %d more", len(articles)-listLimit)
			break
		}
		writeArticleLine(&b, i+1, a, now)
	}
	return b.String()
}

// FormatHomePage formats the landing page: the breaking story, the next
// latest headlines and a few featured world stories.
func FormatHomePage(data model.HomePageData, now time.Time) string {
	if data.HeroArticle == nil {
		return "No headlines right now. Try again in a minute."
	}

	var b strings.Builder
	hero := data.HeroArticle
	if data.Breaking != nil && data.Breaking.IsBreaking {
		b.WriteString("BREAKING\n")
	}
	fmt.Fprintf(&b, "%s\n%s, %s\n", hero.Title, hero.Source, render.Age(hero.PublishedAt, now))
	if hero.Description != "" {
		fmt.Fprintf(&b, "%s\n", hero.Description)
	}
	b.WriteString(hero.Link)
	b.WriteString("\n")

	if len(data.LatestNews) > 0 {
		b.WriteString("\nLatest\n")
		for i, a := range data.LatestNews[:min(homeLatest, len(data.LatestNews))] {
			writeArticleLine(&b, i+1, a, now)
		}
	}
	if len(data.FeaturedArticles) > 0 {
		b.WriteString("\nAround the world\n")
		for i, a := range data.FeaturedArticles[:min(homeFeatured, len(data.FeaturedArticles))] {
			writeArticleLine(&b, i+1, a, now)
		}
	}
	return b.String()
}

// FormatCategories lists the categories accepted by /latest and /subscribe.
func FormatCategories() string {
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, c := range model.Categories {
		fmt.Fprintf(&b, "\n%s (%s)", c, c.Label())
	}
	return b.String()
}

// FormatSubscriptionList formats the subscriptions of a chat for display.
func FormatSubscriptionList(subs []model.Subscription) string {
	if len(subs) == 0 {
		return "You have no subscriptions yet. Use /subscribe <category> [query] to add one."
	}
	var b strings.Builder
	b.WriteString("Your subscriptions:\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "\n#%d %s", s.ID, s.Category.Label())
		if s.Query != "" {
			fmt.Fprintf(&b, " matching %q", s.Query)
		}
		if s.LastPushAt != nil {
			fmt.Fprintf(&b, "\n   last push: %s", s.LastPushAt.Format("2006-01-02 15:04 UTC"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeArticleLine(b *strings.Builder, n int, a model.Article, now time.Time) {
	title := runewidth.Truncate(a.Title, maxTitleWidth, "...")
	fmt.Fprintf(b, "\n%d. %s\n   %s, %s\n   %s\n", n, title, a.Source, render.Age(a.PublishedAt, now), a.Link)
}
