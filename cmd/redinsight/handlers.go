package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/elonfeng/redinsight/internal/config"
	"github.com/elonfeng/redinsight/internal/insight"
	"github.com/elonfeng/redinsight/internal/scheduler"
	"github.com/elonfeng/redinsight/internal/store"
	"github.com/elonfeng/redinsight/pkg/alert"
	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/elonfeng/redinsight/pkg/narrate"
	"github.com/elonfeng/redinsight/pkg/server"
	"github.com/elonfeng/redinsight/pkg/source"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// app holds everything a command needs, built from config.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	db      *store.SQLiteStore
	service *insight.Service
}

func (a *app) Close() error {
	return a.db.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log)

	searcher, err := buildSearcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := insight.Options{
		Store:    db,
		CacheTTL: cfg.Search.ParseCacheTTL(),
		MaxPosts: config.ClampLimit(cfg.Search.MaxPosts, 5),
	}
	if n := buildNarrator(cfg, logger); n != nil {
		opts.Narrator = n
	}

	eng := engine.New(engine.Options{
		HotWordsTopN: cfg.Engine.HotWordsTopN,
		AuthorsTopN:  cfg.Engine.AuthorsTopN,
		TagsTopN:     cfg.Engine.TagsTopN,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		service: insight.New(searcher, eng, logger, opts),
	}, nil
}

func buildSearcher(cfg *config.Config, logger zerolog.Logger) (source.Searcher, error) {
	filter := source.NewFilter(nil, cfg.Sources.Exclude)
	var searchers []source.Searcher

	if cfg.Sources.XHS.Enabled {
		searchers = append(searchers, source.NewXHS(cfg.Sources.XHS.Cookie, cfg.Sources.XHS.Options(), logger))
	}
	if cfg.Sources.Reddit.Enabled {
		searchers = append(searchers, source.NewReddit(
			cfg.Sources.Reddit.ClientID,
			cfg.Sources.Reddit.ClientSecret,
			cfg.Sources.Reddit.Subreddits,
			logger,
		))
	}
	if cfg.Sources.HackerNews.Enabled {
		searchers = append(searchers, source.NewHackerNews(filter))
	}
	if cfg.Sources.RSS.Enabled && len(cfg.Sources.RSS.Feeds) > 0 {
		searchers = append(searchers, source.NewRSS(cfg.Sources.RSS.Feeds, filter, cfg.Sources.RSS.ParseMaxAge(), logger))
	}
	if cfg.Sources.Demo.Enabled {
		searchers = append(searchers, source.NewDemo())
	}

	if len(searchers) == 0 {
		return nil, errors.New("no sources enabled")
	}
	return source.NewChain(logger, searchers...), nil
}

// buildNarrator returns nil when narration is off or has no key.
func buildNarrator(cfg *config.Config, logger zerolog.Logger) *narrate.Narrator {
	if !cfg.LLM.Enabled || cfg.LLM.APIKey == "" {
		return nil
	}
	n := narrate.New(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.BaseURL)
	logger.Info().Str("provider", cfg.LLM.Provider).Str("model", n.Model()).Msg("llm narrator enabled")
	return n
}

// buildAlertManager also returns the NATS connection, if any, for the
// caller to drain.
func buildAlertManager(cfg *config.Config, logger zerolog.Logger) (*alert.Manager, *nats.Conn) {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	var nc *nats.Conn
	if cfg.Alerts.NATS.Enabled && cfg.Alerts.NATS.URL != "" {
		conn, err := alert.ConnectNATS(cfg.Alerts.NATS.URL, logger)
		if err != nil {
			logger.Error().Err(err).Msg("nats alerts disabled")
		} else {
			nc = conn
			notifiers = append(notifiers, alert.NewNATS(nc, cfg.Alerts.NATS.Subject))
		}
	}

	for _, n := range notifiers {
		logger.Info().Str("notifier", n.Name()).Msg("alerts enabled")
	}
	return alert.NewManager(notifiers), nc
}

func runReport(ctx context.Context, keyword string, maxPosts int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.Report(ctx, keyword, config.ClampLimit(maxPosts, a.cfg.Search.MaxPosts))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}
	return printReport(os.Stdout, res)
}

func runRanking(ctx context.Context, category string, maxItems int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.service.Ranking(ctx, category, config.ClampLimit(maxItems, 10))
	if err != nil {
		return err
	}
	if _, err := a.service.SaveRanking(ctx, r); err != nil {
		a.logger.Warn().Err(err).Msg("save ranking snapshot failed")
	}
	if jsonOutput {
		return printJSON(r)
	}
	return printRanking(os.Stdout, r)
}

func runOverview(ctx context.Context, maxItems int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	o, err := a.service.Overview(ctx, config.ClampLimit(maxItems, 3))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(o)
	}
	return printOverview(os.Stdout, o)
}

func runHistory(ctx context.Context, arg string, limit int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, isCategory := engine.LookupCategory(arg); arg != "" && !isCategory {
		snap, err := a.service.RankingSnapshot(ctx, arg)
		if err != nil {
			return err
		}
		if jsonOutput || snap.Ranking == nil {
			return printJSON(snap)
		}
		return printRanking(os.Stdout, *snap.Ranking)
	}

	snaps, err := a.service.RankingHistory(ctx, arg, config.ClampLimit(limit, 20))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(snaps)
	}
	return printHistory(os.Stdout, snaps)
}

func runCity(ctx context.Context, city, topic string, maxPosts int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	analysis, err := a.service.AnalyzeCity(ctx, city, topic, config.ClampLimit(maxPosts, 10))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(analysis)
	}
	return printCity(os.Stdout, analysis)
}

func runCities() error {
	cities := engine.Cities()
	if jsonOutput {
		return printJSON(cities)
	}
	return printCities(os.Stdout, cities)
}

func runCompareCities(ctx context.Context, cities []string, topic string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.service.CompareCities(ctx, cities, topic)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(c)
	}
	return printCityComparison(os.Stdout, c)
}

func runTrendingCities(ctx context.Context, topic string, maxCities int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	heat, err := a.service.TrendingCities(ctx, topic, config.ClampLimit(maxCities, 5))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(heat)
	}
	return printTrendingCities(os.Stdout, topic, heat)
}

func runCompare(ctx context.Context, items []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.Compare(ctx, items)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}
	return printComparison(os.Stdout, res)
}

func newServer(a *app, port int) *server.Server {
	cfg := a.cfg.Server
	if port > 0 {
		cfg.Port = port
	}
	return server.New(a.service, server.Options{
		Addr:         cfg.Addr(),
		CORSOrigins:  cfg.CORSOrigins,
		ReadTimeout:  cfg.ParseReadTimeout(),
		WriteTimeout: cfg.ParseWriteTimeout(),
	}, a.logger)
}

// serveUntilDone runs srv until ctx is cancelled, then shuts it down.
func serveUntilDone(ctx context.Context, srv *server.Server, timeout time.Duration, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, port int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	srv := newServer(a, port)
	return serveUntilDone(ctx, srv, a.cfg.Server.ParseShutdownTimeout(), a.logger)
}

func runDaemon(ctx context.Context, port int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	alertMgr, nc := buildAlertManager(a.cfg, a.logger)
	if nc != nil {
		defer nc.Drain()
	}

	sched := scheduler.New(a.service, alertMgr, scheduler.Options{
		Spec:       a.cfg.Schedule.RankingCron,
		Categories: a.cfg.Schedule.Categories,
		MaxItems:   config.ClampLimit(a.cfg.Schedule.MaxItems, 10),
		JobTimeout: a.cfg.Schedule.ParseJobTimeout(),
	}, a.logger)
	srv := newServer(a, port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return serveUntilDone(gctx, srv, a.cfg.Server.ParseShutdownTimeout(), a.logger)
	})
	return g.Wait()
}
