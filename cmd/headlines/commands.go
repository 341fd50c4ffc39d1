package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"headlines/internal/aggregator"
	"headlines/internal/cache"
	"headlines/internal/config"
	"headlines/internal/fetcher"
	"headlines/internal/model"
	"headlines/internal/registry"
	"headlines/internal/render"
	"headlines/internal/search"
)

type options struct {
	feedsFile string
	json      bool
	limit     int
	verbose   bool
}

// app is built once per invocation, after flags are parsed.
type app struct {
	opts   *options
	feeds  *registry.Registry
	agg    *aggregator.Aggregator
	engine *search.Engine
	now    func() time.Time
}

func newRootCmd(client fetcher.HTTPClient) *cobra.Command {
	opts := &options{}
	a := &app{opts: opts, now: time.Now}

	root := &cobra.Command{
		Use:          "headlines",
		Short:        "Read aggregated news headlines from the terminal",
		Long:         "headlines pulls RSS and Atom feeds from a fixed registry, merges and deduplicates them, and prints the result.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, client)
		},
	}

	root.PersistentFlags().StringVar(&opts.feedsFile, "feeds", "", "path to a feeds.yaml registry (default: $FEEDS_FILE, then the user config dir, then built-in feeds)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	root.PersistentFlags().IntVar(&opts.limit, "limit", 0, "print at most this many articles (0 for all)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log feed fetches to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "home",
			Short: "Show the landing page",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				data := a.agg.HomePage(cmd.Context())
				if opts.json {
					return render.JSON(cmd.OutOrStdout(), data)
				}
				return render.HomePage(cmd.OutOrStdout(), data, a.now())
			},
		},
		&cobra.Command{
			Use:   "category <name>",
			Short: "Show the headlines of one category",
			Long:  "Show the headlines of one category. Categories: " + categoryList() + ".",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := model.ParseCategory(args[0])
				if err != nil {
					return err
				}
				return a.print(cmd, a.agg.ByCategory(cmd.Context(), cat))
			},
		},
		&cobra.Command{
			Use:   "trending",
			Short: "Show trending headlines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.print(cmd, a.agg.Trending(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Show headlines from every feed",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.print(cmd, a.agg.All(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:   "search <query...>",
			Short: "Search recent headlines",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.print(cmd, a.engine.Search(cmd.Context(), strings.Join(args, " ")))
			},
		},
		&cobra.Command{
			Use:   "feeds",
			Short: "List the configured feeds",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if opts.json {
					return render.JSON(cmd.OutOrStdout(), a.feeds.All())
				}
				return render.Feeds(cmd.OutOrStdout(), a.feeds.All())
			},
		},
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, client fetcher.HTTPClient) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.opts.limit < 0 {
		return fmt.Errorf("invalid --limit %d", a.opts.limit)
	}

	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	path := a.opts.feedsFile
	if path == "" {
		path = cfg.FeedsFile
	}
	a.feeds, err = registry.Load(path)
	if err != nil {
		return fmt.Errorf("load feeds: %w", err)
	}

	f := fetcher.New(client, cache.NewMemory(cfg.CacheTTL), log)
	f.SetTimeout(cfg.FetchTimeout)
	f.SetMaxAge(cfg.MaxArticleAge)

	a.agg = aggregator.New(a.feeds, f, log)
	a.engine = search.New(a.agg, a.feeds, log)
	return nil
}

func (a *app) print(cmd *cobra.Command, articles []model.Article) error {
	if a.opts.limit > 0 && len(articles) > a.opts.limit {
		articles = articles[:a.opts.limit]
	}
	if a.opts.json {
		if articles == nil {
			articles = []model.Article{}
		}
		return render.JSON(cmd.OutOrStdout(), articles)
	}
	return render.Table(cmd.OutOrStdout(), articles, a.now())
}

func categoryList() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
