// Package registry holds the static list of feeds the aggregator reads from.
package registry

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"headlines/internal/model"
)

//go:embed feeds.yaml
var defaultFS embed.FS

type file struct {
	Feeds []model.FeedConfig `yaml:"feeds"`
}

// Registry is an immutable, ordered set of feed configurations.
type Registry struct {
	feeds []model.FeedConfig
}

// New builds a Registry from feeds after validating them.
func New(feeds []model.FeedConfig) (*Registry, error) {
	normalized := make([]model.FeedConfig, len(feeds))
	for i, f := range feeds {
		if f.Format == "" {
			f.Format = model.FormatRSS
		}
		if c, err := model.ParseCategory(string(f.Category)); err == nil {
			f.Category = c
		}
		normalized[i] = f
	}
	if err := validate(normalized); err != nil {
		return nil, err
	}
	return &Registry{feeds: normalized}, nil
}

// DefaultPath returns the per-user override location of the registry file.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "headlines", "feeds.yaml")
}

// Default returns the embedded registry.
func Default() (*Registry, error) {
	data, err := defaultFS.ReadFile("feeds.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded registry: %w", err)
	}
	return parse(data, "embedded registry")
}

// Load reads the registry from path. An empty path falls back to the user's
// XDG config file when present, then to the embedded defaults.
func Load(path string) (*Registry, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default()
		}
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, origin string) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", origin, err)
	}
	if len(f.Feeds) == 0 {
		return nil, fmt.Errorf("%s: no feeds configured", origin)
	}
	r, err := New(f.Feeds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}
	return r, nil
}

func validate(feeds []model.FeedConfig) error {
	var errs error
	seen := make(map[string]bool, len(feeds))
	for i, f := range feeds {
		if f.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("feed %d: name is required", i))
		}
		u, err := url.Parse(f.URL)
		switch {
		case f.URL == "":
			errs = multierr.Append(errs, fmt.Errorf("feed %q: url is required", f.Name))
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("feed %q: invalid url: %w", f.Name, err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = multierr.Append(errs, fmt.Errorf("feed %q: url scheme must be http or https, got %q", f.Name, u.Scheme))
		}
		if seen[f.URL] {
			errs = multierr.Append(errs, fmt.Errorf("feed %q: duplicate url %s", f.Name, f.URL))
		}
		seen[f.URL] = true
		if _, err := model.ParseCategory(string(f.Category)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("feed %q: %w", f.Name, err))
		}
		if f.Format != model.FormatRSS && f.Format != model.FormatAtom {
			errs = multierr.Append(errs, fmt.Errorf("feed %q: unknown format %q (valid: rss, atom)", f.Name, f.Format))
		}
	}
	return errs
}

// All returns every configured feed in registry order.
func (r *Registry) All() []model.FeedConfig {
	out := make([]model.FeedConfig, len(r.feeds))
	copy(out, r.feeds)
	return out
}

// ByCategory returns the feeds assigned to any of cats, in registry order.
func (r *Registry) ByCategory(cats ...model.Category) []model.FeedConfig {
	want := make(map[model.Category]bool, len(cats))
	for _, c := range cats {
		want[c] = true
	}
	var out []model.FeedConfig
	for _, f := range r.feeds {
		if want[f.Category] {
			out = append(out, f)
		}
	}
	return out
}

// Home returns the first n home feeds. n <= 0 returns all of them.
func (r *Registry) Home(n int) []model.FeedConfig {
	return head(r.ByCategory(model.CategoryHome), n)
}

// Head returns the first n feeds of the registry. n <= 0 returns all.
func (r *Registry) Head(n int) []model.FeedConfig {
	return head(r.All(), n)
}

// Len reports the number of configured feeds.
func (r *Registry) Len() int {
	return len(r.feeds)
}

func head(feeds []model.FeedConfig, n int) []model.FeedConfig {
	if n > 0 && len(feeds) > n {
		return feeds[:n]
	}
	return feeds
}
