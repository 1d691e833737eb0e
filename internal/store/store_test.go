package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/elonfeng/redinsight/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostsCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	collected := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	posts := []source.Post{
		{ID: "b", Title: "第二篇", Likes: "1.2w", Comments: "30", Tags: []string{"咖啡", "上海"}, Platform: source.PlatformXiaohongshu, CollectedAt: collected},
		{ID: "a", Title: "第一篇", Likes: "800", Comments: "5", Platform: source.PlatformDemo, CollectedAt: collected},
		{ID: "b", Title: "重复"},
	}
	require.NoError(t, s.SavePosts(ctx, "咖啡", posts))

	got, err := s.CachedPosts(ctx, "咖啡", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "1.2w", got[0].Likes)
	assert.Equal(t, []string{"咖啡", "上海"}, got[0].Tags)
	assert.Equal(t, source.PlatformXiaohongshu, got[0].Platform)
	assert.True(t, collected.Equal(got[0].CollectedAt))
	assert.Empty(t, got[0].TagsJSON)
	assert.Equal(t, "a", got[1].ID)

	stale, err := s.CachedPosts(ctx, "咖啡", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)

	other, err := s.CachedPosts(ctx, "奶茶", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSavePostsReplacesKeyword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePosts(ctx, "kw", []source.Post{{ID: "old"}}))
	require.NoError(t, s.SavePosts(ctx, "kw", []source.Post{{ID: "new1"}, {ID: "new2"}}))

	got, err := s.CachedPosts(ctx, "kw", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new1", got[0].ID)
	assert.Equal(t, "new2", got[1].ID)
}

func TestCachedPostsCorruptTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePosts(ctx, "kw", []source.Post{{ID: "p1", Tags: []string{"咖啡"}}}))
	_, err := s.db.ExecContext(ctx, "UPDATE posts SET tags = ? WHERE id = ?", "{not json", "p1")
	require.NoError(t, err)

	_, err = s.CachedPosts(ctx, "kw", time.Time{})
	assert.ErrorContains(t, err, "decode tags of post p1")
}

func TestRankingSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tick := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	food := engine.RankingResult{
		RankingType:     "food",
		Title:           "🍜 美食探店榜",
		Items:           []engine.RankingItem{{Rank: 1, Post: source.Post{ID: "p1", Title: "火锅"}, Score: 1500, Trend: engine.TrendNew}},
		TotalEngagement: 1500,
		AvgScore:        1500,
		GeneratedAt:     "2026-10-19T12:00:00Z",
	}
	first, err := s.SaveRanking(ctx, food)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.ItemCount)

	_, err = s.SaveRanking(ctx, engine.RankingResult{RankingType: "beauty", Items: []engine.RankingItem{}})
	require.NoError(t, err)
	second, err := s.SaveRanking(ctx, food)
	require.NoError(t, err)

	all, err := s.ListRankings(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Nil(t, all[0].Ranking)

	foodOnly, err := s.ListRankings(ctx, "food", 1)
	require.NoError(t, err)
	require.Len(t, foodOnly, 1)
	assert.Equal(t, second.ID, foodOnly[0].ID)
	assert.Equal(t, 1500, foodOnly[0].TotalEngagement)

	got, err := s.GetRanking(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Ranking)
	assert.Equal(t, food, *got.Ranking)
	assert.Equal(t, "2026-10-19T12:00:00Z", got.GeneratedAt)

	none, err := s.ListRankings(ctx, "pet", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestGetRankingNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRanking(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
