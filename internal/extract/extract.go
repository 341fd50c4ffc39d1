// Package extract pulls fields out of raw feed markup with lenient regular
// expressions. Real-world feeds are frequently not well-formed XML, so
// nothing here requires a document to parse: missing or broken markup
// yields an empty result, never an error or panic.
package extract

import (
	"regexp"
	"strings"
	"sync"
)

var (
	itemRe     = regexp.MustCompile(`(?is)<item(?:\s[^>]*)?>.*?</item>`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	rawImageRe = regexp.MustCompile(`(?i)https?://[^"'\s<>]+?\.(?:jpg|jpeg|gif|png|webp|svg)(?:\?[^"'\s<>]+)?`)
	imgSrcRe   = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"'>]+)["']`)
)

// Applied in order, so "&amp;lt;" decodes all the way to "<".
var entities = [][2]string{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
}

var patterns sync.Map // pattern source -> *regexp.Regexp

func compile(expr string) *regexp.Regexp {
	if re, ok := patterns.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	patterns.Store(expr, re)
	return re
}

func openTag(tag string) string {
	return `<` + regexp.QuoteMeta(tag) + `(?:\s[^>]*)?>`
}

// Items splits a feed document into its <item> fragments, keeping at most
// limit of them. limit <= 0 keeps all.
func Items(doc string, limit int) []string {
	if limit <= 0 {
		limit = -1
	}
	return itemRe.FindAllString(doc, limit)
}

// TagContent returns the trimmed text inside the first <tag> of fragment.
// A CDATA-wrapped body is preferred over the plain form. Matching ignores
// case and any attributes on the opening tag.
func TagContent(fragment, tag string) (string, bool) {
	closeTag := `</` + regexp.QuoteMeta(tag) + `>`

	if re := compile(`(?is)` + openTag(tag) + `\s*<!\[CDATA\[(.*?)\]\]>\s*` + closeTag); re != nil {
		if m := re.FindStringSubmatch(fragment); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	if re := compile(`(?is)` + openTag(tag) + `(.*?)` + closeTag); re != nil {
		if m := re.FindStringSubmatch(fragment); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// FirstTag returns the content of the first tag in tags present in fragment
// with a non-empty body.
func FirstTag(fragment string, tags ...string) (string, bool) {
	for _, tag := range tags {
		if v, ok := TagContent(fragment, tag); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// AttrContent returns the quoted value of attr on the first <tag> opening
// element in fragment, self-closing or not.
func AttrContent(fragment, tag, attr string) (string, bool) {
	re := compile(`(?is)<` + regexp.QuoteMeta(tag) + `\s[^>]*?\b` + regexp.QuoteMeta(attr) + `\s*=\s*["']([^"']*)["']`)
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(fragment)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

// openTags returns every opening <tag ...> element in fragment.
func openTags(fragment, tag string) []string {
	re := compile(`(?is)<` + regexp.QuoteMeta(tag) + `\s[^>]*>`)
	if re == nil {
		return nil
	}
	return re.FindAllString(fragment, -1)
}

// StripHTML removes markup and decodes the common HTML entities.
func StripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	for _, e := range entities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return strings.TrimSpace(s)
}

// ImgSrc returns the src of the first <img> in an HTML snippet.
func ImgSrc(html string) (string, bool) {
	m := imgSrcRe.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func isVideoContent(element string) bool {
	typ, _ := AttrContent(element, "media:content", "type")
	medium, _ := AttrContent(element, "media:content", "medium")
	return strings.Contains(strings.ToLower(typ), "video") || strings.EqualFold(medium, "video")
}

// ImageURL resolves a representative image for an item. Candidates, first
// match wins: media:content (non-video), media:thumbnail, enclosure, any
// image-looking URL in the item, then an <img> inside description.
func ImageURL(fragment, description string) (string, bool) {
	for _, el := range openTags(fragment, "media:content") {
		if isVideoContent(el) {
			continue
		}
		if u, ok := AttrContent(el, "media:content", "url"); ok {
			return u, true
		}
	}
	if u, ok := AttrContent(fragment, "media:thumbnail", "url"); ok {
		return u, true
	}
	if u, ok := AttrContent(fragment, "enclosure", "url"); ok {
		return u, true
	}
	if u := rawImageRe.FindString(fragment); u != "" {
		return u, true
	}
	if description != "" {
		return ImgSrc(description)
	}
	return "", false
}

// VideoURL resolves a video asset: a media:content typed as video, then
// media:player, then a video enclosure.
func VideoURL(fragment string) (string, bool) {
	for _, el := range openTags(fragment, "media:content") {
		if !isVideoContent(el) {
			continue
		}
		if u, ok := AttrContent(el, "media:content", "url"); ok {
			return u, true
		}
	}
	if u, ok := AttrContent(fragment, "media:player", "url"); ok {
		return u, true
	}
	if typ, ok := AttrContent(fragment, "enclosure", "type"); ok && strings.Contains(strings.ToLower(typ), "video") {
		return AttrContent(fragment, "enclosure", "url")
	}
	return "", false
}
