package fetcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"headlines/internal/extract"
)

// Item is one feed entry before normalization. Description may still
// contain markup; a zero Published means the date is unknown.
type Item struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
	Image       string
	Video       string
}

// ItemParser turns a feed document into at most limit items.
type ItemParser interface {
	Parse(body string, limit int) ([]Item, error)
}

// TagParser reads RSS <item> elements with the lenient tag extractor. It
// accepts documents a strict XML parser would reject.
type TagParser struct{}

// Parse implements ItemParser.
func (TagParser) Parse(body string, limit int) ([]Item, error) {
	fragments := extract.Items(body, limit)
	items := make([]Item, 0, len(fragments))
	for _, frag := range fragments {
		title, _ := extract.TagContent(frag, "title")
		link, _ := extract.FirstTag(frag, "link", "guid")
		desc, _ := extract.FirstTag(frag, "description", "content:encoded", "summary")

		var published time.Time
		if raw, ok := extract.FirstTag(frag, "pubDate", "dc:date", "updated"); ok {
			published = parseDate(raw)
		}

		image, _ := extract.ImageURL(frag, desc)
		video, _ := extract.VideoURL(frag)

		items = append(items, Item{
			Title:       title,
			Link:        link,
			Description: desc,
			Published:   published,
			Image:       image,
			Video:       video,
		})
	}
	return items, nil
}

// GofeedParser parses well-formed RSS, Atom and JSON feeds with gofeed.
type GofeedParser struct{}

// Parse implements ItemParser.
func (GofeedParser) Parse(body string, limit int) ([]Item, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := feed.Items
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = e.Content
		}

		var published time.Time
		switch {
		case e.PublishedParsed != nil:
			published = *e.PublishedParsed
		case e.UpdatedParsed != nil:
			published = *e.UpdatedParsed
		}

		items = append(items, Item{
			Title:       e.Title,
			Link:        gofeedLink(e),
			Description: desc,
			Published:   published,
			Image:       gofeedImage(e, desc),
			Video:       gofeedVideo(e),
		})
	}
	return items, nil
}

func gofeedLink(e *gofeed.Item) string {
	if e.Link != "" {
		return e.Link
	}
	return e.GUID
}

func gofeedImage(e *gofeed.Item, desc string) string {
	if e.Image != nil && e.Image.URL != "" {
		return e.Image.URL
	}
	for _, enc := range e.Enclosures {
		if enc != nil && strings.HasPrefix(strings.ToLower(enc.Type), "image") {
			return enc.URL
		}
	}
	src, _ := extract.ImgSrc(desc)
	return src
}

func gofeedVideo(e *gofeed.Item) string {
	for _, enc := range e.Enclosures {
		if enc != nil && strings.Contains(strings.ToLower(enc.Type), "video") {
			return enc.URL
		}
	}
	return ""
}

// parseDate accepts the many date layouts seen in feeds. Unparseable input
// yields the zero time.
func parseDate(raw string) time.Time {
	t, err := dateparse.ParseAny(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}
