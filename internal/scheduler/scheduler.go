package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/elonfeng/redinsight/internal/store"
	"github.com/elonfeng/redinsight/pkg/alert"
	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/elonfeng/redinsight/pkg/source"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Rankings builds and stores ranking boards. *insight.Service implements it.
type Rankings interface {
	Ranking(ctx context.Context, category string, maxItems int) (engine.RankingResult, error)
	SaveRanking(ctx context.Context, r engine.RankingResult) (*store.RankingSnapshot, error)
}

// Options configures the refresh job.
type Options struct {
	Spec       string
	Categories []string
	MaxItems   int
	JobTimeout time.Duration
}

// Scheduler refreshes ranking boards on a cron schedule and alerts on
// posts with high viral potential.
type Scheduler struct {
	cron       *cron.Cron
	rankings   Rankings
	alertMgr   *alert.Manager
	spec       string
	categories []string
	maxItems   int
	timeout    time.Duration
	logger     zerolog.Logger

	mu      sync.Mutex
	alerted map[string]bool
}

// New creates a new scheduler.
func New(rankings Rankings, alertMgr *alert.Manager, opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Spec == "" {
		opts.Spec = "@every 30m"
	}
	if len(opts.Categories) == 0 {
		opts.Categories = []string{engine.DefaultCategory}
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 10
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(),
		rankings:   rankings,
		alertMgr:   alertMgr,
		spec:       opts.Spec,
		categories: opts.Categories,
		maxItems:   opts.MaxItems,
		timeout:    opts.JobTimeout,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		alerted:    make(map[string]bool),
	}
}

// Run refreshes once, then on every tick of the schedule. Blocks until
// ctx is cancelled and the running job has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddJob(s.spec, s.job(ctx)); err != nil {
		return fmt.Errorf("schedule ranking refresh %q: %w", s.spec, err)
	}

	s.logger.Info().Msg("initial ranking refresh")
	s.runJob(ctx)

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Strs("categories", s.categories).Msg("scheduler running")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
	return ctx.Err()
}

// job is the scheduled refresh. A tick that fires while the previous
// refresh is still running is skipped so a post cannot be alerted twice.
func (s *Scheduler) job(ctx context.Context) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).
		Then(cron.FuncJob(func() { s.runJob(ctx) }))
}

func (s *Scheduler) runJob(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("ranking refresh failed")
		return
	}
	s.logger.Info().Dur("took", time.Since(start)).Msg("ranking refresh done")
}

// Refresh rebuilds every configured board, stores a snapshot and alerts
// on newly seen viral posts. A failing board does not stop the others.
func (s *Scheduler) Refresh(ctx context.Context) error {
	var errs []error
	for _, category := range s.categories {
		r, err := s.rankings.Ranking(ctx, category, s.maxItems)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if _, err := s.rankings.SaveRanking(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("save ranking %s: %w", category, err))
		}

		viral := s.newViralPosts(r)
		s.logger.Debug().Str("category", r.RankingType).Int("items", len(r.Items)).Int("viral", len(viral)).Msg("board refreshed")
		if len(viral) == 0 || !s.alertMgr.HasNotifiers() {
			continue
		}

		n := &alert.Notification{
			Category:    r.RankingType,
			Title:       r.Title + " 出现爆款",
			Body:        fmt.Sprintf("%d 篇内容质量评分达到爆款水平", len(viral)),
			Posts:       viral,
			GeneratedAt: r.GeneratedAt,
		}
		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("alert %s: %w", category, err))
			continue
		}
		s.markAlerted(viral)
		s.logger.Info().Str("category", r.RankingType).Int("posts", len(viral)).Msg("viral alert sent")
	}
	return errors.Join(errs...)
}

// newViralPosts scores the board's posts and returns the high-potential
// ones not alerted before, in rank order.
func (s *Scheduler) newViralPosts(r engine.RankingResult) []alert.ViralPost {
	quality := make(map[string]engine.QualityScore)
	for _, q := range engine.QualityScores(itemPosts(r.Items)) {
		quality[q.PostID] = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var viral []alert.ViralPost
	for _, item := range r.Items {
		q, ok := quality[item.Post.ID]
		if !ok || q.ViralPotential != engine.ViralHigh || s.alerted[item.Post.ID] {
			continue
		}
		viral = append(viral, alert.ViralPost{
			Rank:         item.Rank,
			ID:           item.Post.ID,
			Title:        item.Post.Title,
			Author:       item.Post.Author,
			URL:          item.Post.URL,
			Likes:        item.Post.Likes,
			Comments:     item.Post.Comments,
			Score:        item.Score,
			QualityScore: q.TotalScore,
		})
	}
	return viral
}

func (s *Scheduler) markAlerted(posts []alert.ViralPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range posts {
		s.alerted[p.ID] = true
	}
}

func itemPosts(items []engine.RankingItem) []source.Post {
	posts := make([]source.Post, len(items))
	for i, item := range items {
		posts[i] = item.Post
	}
	return posts
}
