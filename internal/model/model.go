// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is the section an article belongs to. It is assigned from the
// feed configuration, never derived from content.
type Category string

// Supported categories.
const (
	CategoryHome       Category = "home"
	CategoryWorld      Category = "world"
	CategoryNational   Category = "national"
	CategoryBusiness   Category = "business"
	CategoryOpinion    Category = "opinion"
	CategorySports     Category = "sports"
	CategoryTechnology Category = "technology"
	CategoryUSA        Category = "usa"
	CategoryChina      Category = "china"
	CategoryIndia      Category = "india"
	CategoryTrending   Category = "trending"
	CategoryCulture    Category = "culture"
	CategoryInnovation Category = "innovation"
)

// Categories lists every supported category in display order.
var Categories = []Category{
	CategoryHome,
	CategoryWorld,
	CategoryNational,
	CategoryBusiness,
	CategoryOpinion,
	CategorySports,
	CategoryTechnology,
	CategoryUSA,
	CategoryChina,
	CategoryIndia,
	CategoryTrending,
	CategoryCulture,
	CategoryInnovation,
}

var categoryLabels = map[Category]string{
	CategoryHome:       "Home",
	CategoryWorld:      "World",
	CategoryNational:   "National",
	CategoryBusiness:   "Business",
	CategoryOpinion:    "Politics",
	CategorySports:     "Sports",
	CategoryTechnology: "Technology",
	CategoryUSA:        "USA & Canada",
	CategoryChina:      "China News",
	CategoryIndia:      "India News",
	CategoryTrending:   "Trending",
	CategoryCulture:    "Culture",
	CategoryInnovation: "Innovation",
}

// ParseCategory converts s into a known Category, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// FeedFormat selects how a feed body is turned into articles.
type FeedFormat string

// Supported feed formats.
const (
	FormatRSS  FeedFormat = "rss"
	FormatAtom FeedFormat = "atom"
)

// FeedConfig describes one external source.
type FeedConfig struct {
	Name     string     `yaml:"name"`
	URL      string     `yaml:"url"`
	Category Category   `yaml:"category"`
	Format   FeedFormat `yaml:"format,omitempty"`
}

// Article is a normalized headline from any feed.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Image       string    `json:"image,omitempty"`
	Video       string    `json:"video,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    Category  `json:"category"`
	IsBreaking  bool      `json:"isBreaking,omitempty"`
}

// CacheEntry is the last successful parse of a feed.
type CacheEntry struct {
	Articles  []Article
	FetchedAt time.Time
}

// HomePageData is the composite landing page view.
type HomePageData struct {
	HeroArticle      *Article  `json:"heroArticle"`
	LatestNews       []Article `json:"latestNews"`
	TopStories       []Article `json:"topStories"`
	FeaturedArticles []Article `json:"featuredArticles"`
	Trending         []Article `json:"trending"`
	Breaking         *Article  `json:"breaking"`
	MoreStories      []Article `json:"moreStories"`
}

// Subscription asks for new headlines of a category to be pushed to a chat.
// A non-empty Query narrows the push to articles matching it.
type Subscription struct {
	ID         int64
	ChatID     int64
	Category   Category
	Query      string
	CreatedAt  time.Time
	LastPushAt *time.Time
}
