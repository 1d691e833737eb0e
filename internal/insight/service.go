// Package insight runs retrieval for a request and hands the merged posts
// to the engine.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elonfeng/redinsight/internal/store"
	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/elonfeng/redinsight/pkg/source"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyKeyword    = errors.New("keyword is empty")
	ErrUnknownCity     = errors.New("unknown city")
	ErrNotEnoughItems  = errors.New("compare needs at least 2 items")
	ErrHistoryDisabled = errors.New("ranking history needs a store")
)

const (
	// seedKeywords is how many keywords of a category or city are searched.
	seedKeywords = 2

	compareMaxItems       = 5
	comparePostsPerItem   = 5
	cityComparePosts      = 5
	trendingPostsPerCity  = 3
	defaultTrendingCities = 5
)

// Narrator writes prose analyses. *narrate.Narrator implements it.
type Narrator interface {
	Report(ctx context.Context, r engine.Report, posts []source.Post) (string, error)
	Comparison(ctx context.Context, c engine.Comparison) (string, error)
}

// Options holds the optional collaborators of a Service.
type Options struct {
	// Store caches searched posts and keeps ranking history. May be nil.
	Store store.Store
	// Narrator adds prose analysis to reports and comparisons. May be nil.
	Narrator Narrator
	// CacheTTL is how long stored posts are reused. Zero disables the cache.
	CacheTTL time.Duration
	// MaxPosts is the search size when a request gives none.
	MaxPosts int
	// Parallelism bounds concurrent searches of one request.
	Parallelism int
}

// Service runs retrieval for a request and hands the merged posts to the engine.
type Service struct {
	searcher    source.Searcher
	engine      *engine.Engine
	store       store.Store
	narrator    Narrator
	cacheTTL    time.Duration
	maxPosts    int
	parallelism int
	logger      zerolog.Logger
	now         func() time.Time
}

// New creates a service.
func New(searcher source.Searcher, eng *engine.Engine, logger zerolog.Logger, opts Options) *Service {
	if opts.MaxPosts <= 0 {
		opts.MaxPosts = 10
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 2
	}
	return &Service{
		searcher:    searcher,
		engine:      eng,
		store:       opts.Store,
		narrator:    opts.Narrator,
		cacheTTL:    opts.CacheTTL,
		maxPosts:    opts.MaxPosts,
		parallelism: opts.Parallelism,
		logger:      logger.With().Str("component", "insight").Logger(),
		now:         time.Now,
	}
}

// Search returns up to limit posts for keyword, from the cache when fresh.
// A search that finds nothing yields an empty slice, not an error.
func (s *Service) Search(ctx context.Context, keyword string, limit int) ([]source.Post, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if limit <= 0 {
		limit = s.maxPosts
	}

	if posts := s.cached(ctx, keyword, limit); posts != nil {
		return posts, nil
	}

	posts, err := s.searcher.Search(ctx, keyword, limit)
	if errors.Is(err, source.ErrNoResults) {
		return []source.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}

	if s.store != nil && s.cacheTTL > 0 {
		if err := s.store.SavePosts(ctx, keyword, posts); err != nil {
			s.logger.Warn().Err(err).Str("keyword", keyword).Msg("cache posts failed")
		}
	}
	return posts, nil
}

func (s *Service) cached(ctx context.Context, keyword string, limit int) []source.Post {
	if s.store == nil || s.cacheTTL <= 0 {
		return nil
	}
	posts, err := s.store.CachedPosts(ctx, keyword, s.now().Add(-s.cacheTTL))
	if err != nil {
		s.logger.Warn().Err(err).Str("keyword", keyword).Msg("read post cache failed")
		return nil
	}
	if len(posts) == 0 || len(posts) < limit {
		return nil
	}
	s.logger.Debug().Str("keyword", keyword).Int("posts", len(posts)).Msg("served from cache")
	return posts[:limit]
}

// searchAll searches every keyword concurrently and concatenates the
// results in keyword order.
func (s *Service) searchAll(ctx context.Context, keywords []string, limit int) ([]source.Post, error) {
	results, err := s.searchEach(ctx, keywords, limit)
	if err != nil {
		return nil, err
	}
	var merged []source.Post
	for _, posts := range results {
		merged = append(merged, posts...)
	}
	return merged, nil
}

func (s *Service) searchEach(ctx context.Context, keywords []string, limit int) ([][]source.Post, error) {
	results := make([][]source.Post, len(keywords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, kw := range keywords {
		g.Go(func() error {
			posts, err := s.Search(gctx, kw, limit)
			if err != nil {
				return err
			}
			results[i] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ReportResult is a statistics report with the posts it was built from.
type ReportResult struct {
	Report   engine.Report `json:"report"`
	Posts    []source.Post `json:"posts"`
	Analysis string        `json:"analysis,omitempty"`
}

// Report searches keyword and builds its statistics report.
func (s *Service) Report(ctx context.Context, keyword string, maxPosts int) (*ReportResult, error) {
	posts, err := s.Search(ctx, keyword, maxPosts)
	if err != nil {
		return nil, err
	}

	res := &ReportResult{
		Report: s.engine.GenerateReport(posts, strings.TrimSpace(keyword)),
		Posts:  posts,
	}
	if s.narrator != nil && len(posts) > 0 {
		analysis, err := s.narrator.Report(ctx, res.Report, posts)
		if err != nil {
			s.logger.Warn().Err(err).Str("keyword", keyword).Msg("report narration failed")
		}
		res.Analysis = analysis
	}
	return res, nil
}

// Ranking builds the board of category from its first seed keywords.
// Unknown categories fall back to the hot board.
func (s *Service) Ranking(ctx context.Context, category string, maxItems int) (engine.RankingResult, error) {
	cat := engine.ResolveCategory(category)
	if maxItems <= 0 {
		maxItems = 10
	}

	keywords := cat.Keywords[:min(seedKeywords, len(cat.Keywords))]
	posts, err := s.searchAll(ctx, keywords, maxItems)
	if err != nil {
		return engine.RankingResult{}, fmt.Errorf("ranking %s: %w", cat.Type, err)
	}
	return s.engine.BuildRanking(cat, posts, maxItems), nil
}

// Overview builds the overview boards one after another, keeping maxItems
// items of each.
func (s *Service) Overview(ctx context.Context, maxItems int) (engine.Overview, error) {
	if maxItems <= 0 {
		maxItems = 3
	}
	rankings := make([]engine.RankingResult, 0, len(engine.OverviewCategories))
	for _, name := range engine.OverviewCategories {
		r, err := s.Ranking(ctx, name, maxItems)
		if err != nil {
			return engine.Overview{}, err
		}
		rankings = append(rankings, r)
	}
	return s.engine.BuildOverview(rankings, maxItems), nil
}

// RankingHistory lists stored snapshots, newest first.
func (s *Service) RankingHistory(ctx context.Context, category string, limit int) ([]store.RankingSnapshot, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.ListRankings(ctx, category, limit)
}

// RankingSnapshot returns one stored snapshot with its full board.
func (s *Service) RankingSnapshot(ctx context.Context, id string) (*store.RankingSnapshot, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.GetRanking(ctx, id)
}

// SaveRanking stores a board in the ranking history. It is a no-op
// without a store.
func (s *Service) SaveRanking(ctx context.Context, r engine.RankingResult) (*store.RankingSnapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.SaveRanking(ctx, r)
}

func resolveCity(name string) (engine.CityProfile, error) {
	city, ok := engine.LookupCity(name)
	if !ok {
		return engine.CityProfile{}, fmt.Errorf("%w: %s", ErrUnknownCity, name)
	}
	return city, nil
}

func cityKeywords(city engine.CityProfile, topic string) []string {
	if topic = strings.TrimSpace(topic); topic != "" {
		return []string{city.Name + topic, city.Name + " " + topic}
	}
	return []string{city.Name + "探店", city.Name + "攻略"}
}

// AnalyzeCity searches a city's topic keywords and analyzes the posts.
func (s *Service) AnalyzeCity(ctx context.Context, cityName, topic string, maxPosts int) (engine.CityAnalysis, error) {
	city, err := resolveCity(cityName)
	if err != nil {
		return engine.CityAnalysis{}, err
	}
	if maxPosts <= 0 {
		maxPosts = s.maxPosts
	}

	posts, err := s.searchAll(ctx, cityKeywords(city, topic), maxPosts)
	if err != nil {
		return engine.CityAnalysis{}, fmt.Errorf("analyze city %s: %w", city.Name, err)
	}
	return s.engine.AnalyzeCity(city, posts, maxPosts), nil
}

// CompareCities analyzes each city on topic and compares them.
func (s *Service) CompareCities(ctx context.Context, cityNames []string, topic string) (engine.RegionalComparison, error) {
	cities := make([]engine.CityProfile, 0, len(cityNames))
	for _, name := range cityNames {
		city, err := resolveCity(name)
		if err != nil {
			return engine.RegionalComparison{}, err
		}
		cities = append(cities, city)
	}
	if len(cities) < 2 {
		return engine.RegionalComparison{}, fmt.Errorf("compare cities: %w", ErrNotEnoughItems)
	}

	analyses := make([]engine.CityAnalysis, len(cities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, city := range cities {
		g.Go(func() error {
			a, err := s.AnalyzeCity(gctx, city.Name, topic, cityComparePosts)
			if err != nil {
				return err
			}
			analyses[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return engine.RegionalComparison{}, err
	}
	return s.engine.CompareCities(analyses), nil
}

// TrendingCities ranks the sample cities by the likes of their posts on topic.
func (s *Service) TrendingCities(ctx context.Context, topic string, maxCities int) ([]engine.CityHeat, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyKeyword
	}
	if maxCities <= 0 {
		maxCities = defaultTrendingCities
	}

	var cities []engine.CityProfile
	var keywords []string
	for _, name := range engine.TrendingSampleCities {
		city, err := resolveCity(name)
		if err != nil {
			return nil, err
		}
		cities = append(cities, city)
		keywords = append(keywords, city.Name+" "+topic)
	}

	results, err := s.searchEach(ctx, keywords, trendingPostsPerCity)
	if err != nil {
		return nil, fmt.Errorf("trending cities %q: %w", topic, err)
	}

	samples := make([]engine.CityPosts, len(cities))
	for i, city := range cities {
		samples[i] = engine.CityPosts{City: city, Posts: results[i]}
	}
	return engine.TrendingCities(samples, maxCities), nil
}

// CompareResult is a cohort comparison with its source post count.
type CompareResult struct {
	Comparison       engine.Comparison `json:"comparison"`
	SourcePostsCount int               `json:"source_posts_count"`
	Analysis         string            `json:"analysis,omitempty"`
}

// Compare searches each item and compares their engagement. Blank items
// are dropped and only the first five are used.
func (s *Service) Compare(ctx context.Context, items []string) (*CompareResult, error) {
	var labels []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			labels = append(labels, item)
		}
	}
	if len(labels) < 2 {
		return nil, ErrNotEnoughItems
	}
	labels = labels[:min(compareMaxItems, len(labels))]

	results, err := s.searchEach(ctx, labels, comparePostsPerItem)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	res := &CompareResult{}
	cohorts := make([]engine.Cohort, len(labels))
	for i, label := range labels {
		cohorts[i] = engine.Cohort{Label: label, Posts: results[i]}
		res.SourcePostsCount += len(results[i])
	}
	res.Comparison = engine.CompareCohorts(cohorts)

	if s.narrator != nil && res.SourcePostsCount > 0 {
		analysis, err := s.narrator.Comparison(ctx, res.Comparison)
		if err != nil {
			s.logger.Warn().Err(err).Strs("items", labels).Msg("comparison narration failed")
		}
		res.Analysis = analysis
	}
	return res, nil
}
