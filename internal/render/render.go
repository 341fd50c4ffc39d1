// Package render prints headlines for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"headlines/internal/model"
)

const (
	sourceWidth = 22
	titleWidth  = 80
	ellipsis    = "..."
	separator   = "  "
)

// Table writes articles as aligned rows of age, source and title, each
// followed by an indented link line.
func Table(w io.Writer, articles []model.Article, now time.Time) error {
	if len(articles) == 0 {
		_, err := fmt.Fprintln(w, "No headlines.")
		return err
	}

	ages := make([]string, len(articles))
	ageWidth := 0
	for i, a := range articles {
		ages[i] = Age(a.PublishedAt, now)
		ageWidth = max(ageWidth, runewidth.StringWidth(ages[i]))
	}

	indent := strings.Repeat(" ", ageWidth+len(separator))
	for i, a := range articles {
		row := runewidth.FillRight(ages[i], ageWidth) + separator +
			runewidth.FillRight(runewidth.Truncate(a.Source, sourceWidth, ellipsis), sourceWidth) + separator +
			runewidth.Truncate(a.Title, titleWidth, ellipsis)
		if a.IsBreaking {
			row += " [BREAKING]"
		}
		if _, err := fmt.Fprintf(w, "%s\n%s%s\n", row, indent, a.Link); err != nil {
			return err
		}
	}
	return nil
}

// HomePage writes the landing page sections that carry articles.
func HomePage(w io.Writer, data model.HomePageData, now time.Time) error {
	if data.Breaking != nil {
		if _, err := fmt.Fprintf(w, "BREAKING: %s\n%s\n\n", data.Breaking.Title, data.Breaking.Link); err != nil {
			return err
		}
	}

	sections := []struct {
		title    string
		articles []model.Article
	}{
		{"Latest", data.LatestNews},
		{"Top stories", data.TopStories},
		{"Around the world", data.FeaturedArticles},
		{"More stories", data.MoreStories},
	}
	for _, s := range sections {
		if len(s.articles) == 0 {
			continue
		}
		if err := heading(w, s.title); err != nil {
			return err
		}
		if err := Table(w, s.articles, now); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// Feeds writes the registry as name, category and URL columns.
func Feeds(w io.Writer, feeds []model.FeedConfig) error {
	nameWidth := 0
	for _, f := range feeds {
		nameWidth = max(nameWidth, runewidth.StringWidth(f.Name))
	}
	for _, f := range feeds {
		_, err := fmt.Fprintf(w, "%s%s%s%s%s\n",
			runewidth.FillRight(f.Name, nameWidth), separator,
			runewidth.FillRight(string(f.Category), 10), separator,
			f.URL,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Age renders how long ago t was, relative to now.
func Age(t, now time.Time) string {
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func heading(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("=", runewidth.StringWidth(title)))
	return err
}
