package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elonfeng/redinsight/internal/config"
	"github.com/elonfeng/redinsight/internal/insight"
	"github.com/elonfeng/redinsight/internal/store"
	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMaxPosts      = 10
	defaultMaxItems      = 10
	defaultOverviewItems = 3
	defaultHistoryLimit  = 20
	defaultTrendingMax   = 5
	listedCityTopics     = 5
)

var errBadBody = errors.New("invalid request body")

type searchRequest struct {
	Keyword  string `json:"keyword"`
	MaxPosts int    `json:"max_posts"`
}

type rankingRequest struct {
	RankingType string `json:"ranking_type"`
	MaxItems    int    `json:"max_items"`
}

type regionalRequest struct {
	City     string `json:"city"`
	Topic    string `json:"topic"`
	MaxPosts int    `json:"max_posts"`
}

type compareCitiesRequest struct {
	Cities []string `json:"cities"`
	Topic  string   `json:"topic"`
}

type compareRequest struct {
	Items []string `json:"items"`
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	keyword := strings.TrimSpace(req.Keyword)

	posts, err := s.service.Search(r.Context(), keyword, config.ClampLimit(req.MaxPosts, defaultMaxPosts))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"keyword":    keyword,
		"posts":      posts,
		"total":      len(posts),
		"scraped_at": s.timestamp(),
		"message":    fmt.Sprintf("成功获取 %d 条关于「%s」的帖子", len(posts), keyword),
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.service.Report(r.Context(), req.Keyword, config.ClampLimit(req.MaxPosts, defaultMaxPosts))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	body := map[string]any{
		"success":   true,
		"report":    res.Report,
		"posts":     res.Posts,
		"timestamp": s.timestamp(),
	}
	if res.Analysis != "" {
		body["analysis"] = res.Analysis
	}
	respondWithJSON(w, http.StatusOK, body)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	var req rankingRequest
	if !s.decode(w, r, &req) {
		return
	}

	ranking, err := s.service.Ranking(r.Context(), req.RankingType, config.ClampLimit(req.MaxItems, defaultMaxItems))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"ranking":   ranking,
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleRankingTypes(w http.ResponseWriter, r *http.Request) {
	type rankingType struct {
		Type        string `json:"type"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	cats := engine.Categories()
	types := make([]rankingType, len(cats))
	for i, c := range cats {
		types[i] = rankingType{Type: c.Type, Title: c.Title, Description: c.Description}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"types": types})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	maxItems := config.ClampLimit(queryInt(r, "max_items"), defaultOverviewItems)

	overview, err := s.service.Overview(r.Context(), maxItems)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"overview":  overview,
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := config.ClampLimit(queryInt(r, "limit"), defaultHistoryLimit)

	snapshots, err := s.service.RankingHistory(r.Context(), category, limit)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.service.RankingSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"snapshot": snapshot,
		"ranking":  snapshot.Ranking,
	})
}

func (s *Server) handleRegional(w http.ResponseWriter, r *http.Request) {
	var req regionalRequest
	if !s.decode(w, r, &req) {
		return
	}

	analysis, err := s.service.AnalyzeCity(r.Context(), req.City, req.Topic, config.ClampLimit(req.MaxPosts, defaultMaxPosts))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"analysis":  analysis,
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	type cityInfo struct {
		Name        string   `json:"name"`
		Emoji       string   `json:"emoji"`
		HotTopics   []string `json:"hot_topics"`
		Specialties []string `json:"specialties"`
	}

	profiles := engine.Cities()
	cities := make([]cityInfo, len(profiles))
	for i, c := range profiles {
		cities[i] = cityInfo{
			Name:        c.Name,
			Emoji:       c.Emoji,
			HotTopics:   c.HotTopics[:min(listedCityTopics, len(c.HotTopics))],
			Specialties: c.Specialties[:min(listedCityTopics, len(c.Specialties))],
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"cities": cities})
}

func (s *Server) handleCompareCities(w http.ResponseWriter, r *http.Request) {
	var req compareCitiesRequest
	if !s.decode(w, r, &req) {
		return
	}

	comparison, err := s.service.CompareCities(r.Context(), req.Cities, req.Topic)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"comparison": comparison,
		"timestamp":  s.timestamp(),
	})
}

func (s *Server) handleTrendingCities(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	maxCities := config.ClampLimit(queryInt(r, "max_cities"), defaultTrendingMax)

	cities, err := s.service.TrendingCities(r.Context(), topic, maxCities)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"topic":     topic,
		"cities":    cities,
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.service.Compare(r.Context(), req.Items)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	body := map[string]any{
		"success":            true,
		"comparison":         res.Comparison,
		"source_posts_count": res.SourcePostsCount,
		"timestamp":          s.timestamp(),
	}
	if res.Analysis != "" {
		body["analysis"] = res.Analysis
	}
	respondWithJSON(w, http.StatusOK, body)
}

// decode reads a JSON body into v. An empty body leaves v at its defaults.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	s.respondWithError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
	return false
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, insight.ErrEmptyKeyword),
		errors.Is(err, insight.ErrUnknownCity),
		errors.Is(err, insight.ErrNotEnoughItems),
		errors.Is(err, insight.ErrHistoryDisabled):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondWithJSON(w, code, map[string]string{"error": err.Error()})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
