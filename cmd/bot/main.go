package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"headlines/internal/aggregator"
	"headlines/internal/bot"
	"headlines/internal/cache"
	"headlines/internal/config"
	"headlines/internal/fetcher"
	"headlines/internal/registry"
	"headlines/internal/scheduler"
	"headlines/internal/search"
	"headlines/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireToken()
	}
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	feeds, err := registry.Load(cfg.FeedsFile)
	if err != nil {
		log.Error("load feeds", "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	f := fetcher.New(&http.Client{}, cache.NewMemory(cfg.CacheTTL), log)
	f.SetTimeout(cfg.FetchTimeout)
	f.SetMaxAge(cfg.MaxArticleAge)

	agg := aggregator.New(feeds, f, log)
	engine := search.New(agg, feeds, log)

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, agg, engine, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(store, agg, b, log)
	if err := sched.SetSchedule(cfg.PushSchedule); err != nil {
		log.Error("configure scheduler", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "feeds", feeds.Len())

	go func() {
		if err := sched.Run(ctx); err != nil {
			log.Error("scheduler stopped", "error", err)
		}
	}()

	b.Run(ctx)

	log.Info("bot stopped")
}
