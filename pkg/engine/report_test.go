package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/redinsight/pkg/source"
)

var fixedNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return New(Options{Now: func() time.Time { return fixedNow }})
}

func skincarePosts() []source.Post {
	return []source.Post{
		{ID: "1", Title: "超好用的护肤品推荐！敏感肌必入 🌟", Content: "分享我的护肤心得...", Author: "美妆达人", Likes: "2.3w", Comments: "1234", Tags: []string{"护肤", "敏感肌"}},
		{ID: "2", Title: "这款面霜真的绝了！平价好用", Content: "用了一个月效果超棒...", Author: "小红薯", Likes: "8500", Comments: "432", Tags: []string{"护肤", "面霜"}},
		{ID: "3", Title: "护肤新手入门指南", Content: "刚开始护肤的姐妹看过来...", Author: "护肤小课堂", Likes: "1.5w", Comments: "876", Tags: []string{"护肤", "新手"}},
	}
}

func TestGenerateReport(t *testing.T) {
	r := newTestEngine().GenerateReport(skincarePosts(), "护肤品")

	assert.Equal(t, "护肤品", r.Keyword)
	assert.Equal(t, 3, r.TotalPosts)
	assert.Equal(t, 46500, r.TotalLikes)
	assert.Equal(t, 2542, r.TotalComments)
	assert.Equal(t, 49042, r.TotalEngagement)
	assert.Equal(t, 15500.0, r.AvgLikes)
	assert.Equal(t, 847.3, r.AvgComments)
	assert.Equal(t, 16347.3, r.AvgEngagement)
	assert.Equal(t, 23000, r.MaxLikes)
	assert.Equal(t, 1234, r.MaxComments)
	assert.Equal(t, fixedNow.Format(time.RFC3339), r.GeneratedAt)

	require.NotEmpty(t, r.EngagementDistribution)
	assert.Equal(t, "5k-1w", r.EngagementDistribution[0].RangeLabel)
	assert.Equal(t, "1w-5w", r.EngagementDistribution[1].RangeLabel)

	words := make([]string, len(r.HotWords))
	for i, w := range r.HotWords {
		words[i] = w.Word
	}
	assert.Contains(t, words, "护肤")
	assert.Contains(t, words, "好用")

	require.NotEmpty(t, r.TopTags)
	assert.Equal(t, TagStat{Tag: "护肤", Count: 3, Engagement: 46500}, r.TopTags[0])

	require.Len(t, r.TopAuthors, 3)
	assert.Equal(t, "美妆达人", r.TopAuthors[0].Author)
	assert.Len(t, r.QualityScores, 3)

	require.NotEmpty(t, r.Insights)
	assert.Equal(t, "📊 共分析 3 篇内容，总互动量 49,042", r.Insights[0])
	assert.Equal(t, "🔥 平均互动量 16,347，内容热度极高", r.Insights[1])
	assert.Contains(t, r.Insights, "👑 头部创作者「美妆达人」贡献了 23,000 点赞")
	for _, in := range r.Insights {
		assert.NotContains(t, in, "评论率")
	}
}

func TestGenerateReportDeduplicates(t *testing.T) {
	posts := append(skincarePosts(), skincarePosts()[0])

	r := newTestEngine().GenerateReport(posts, "护肤品")

	assert.Equal(t, 3, r.TotalPosts)
	assert.Equal(t, 46500, r.TotalLikes)
}

func TestGenerateReportEmpty(t *testing.T) {
	r := newTestEngine().GenerateReport(nil, "空")

	assert.Equal(t, 0, r.TotalPosts)
	assert.Equal(t, 0.0, r.AvgEngagement)
	assert.Empty(t, r.EngagementDistribution)
	assert.Empty(t, r.HotWords)
	assert.Empty(t, r.TopAuthors)
	assert.Empty(t, r.QualityScores)
	assert.Equal(t, []string{NoDataInsight}, r.Insights)
}

func TestInsightsRuleOrder(t *testing.T) {
	s := Summary{
		TotalPosts:      4,
		TotalLikes:      4000,
		TotalComments:   800,
		TotalEngagement: 4800,
		AvgEngagement:   1200,
		HotWords:        []HotWord{{Word: "a"}, {Word: "b"}, {Word: "c"}, {Word: "d"}, {Word: "e"}, {Word: "f"}},
		Distribution: []EngagementBucket{
			{RangeLabel: "1k-5k", Percentage: 75},
			{RangeLabel: "1w-5w", Percentage: 25},
		},
		Authors: []AuthorStats{{Author: "小红薯", TotalLikes: 1234}},
	}

	got := Insights(s, DefaultInsightRules)

	assert.Equal(t, []string{
		"📊 共分析 4 篇内容，总互动量 4,800",
		"✨ 平均互动量 1,200，内容热度较高",
		"💬 热门关键词：a, b, c, d, e",
		"🚀 25.0% 的内容互动量过万，爆款率较高",
		"👑 头部创作者「小红薯」贡献了 1,234 点赞",
		"💭 评论率 20.0%，用户讨论热度高",
	}, got)
}

func TestInsightsSkipsRulesThatDoNotFire(t *testing.T) {
	s := Summary{TotalPosts: 1, TotalLikes: 10, TotalComments: 1, TotalEngagement: 11, AvgEngagement: 11}

	assert.Equal(t, []string{"📊 共分析 1 篇内容，总互动量 11"}, Insights(s, DefaultInsightRules))
}

func TestCustomInsightRules(t *testing.T) {
	e := New(Options{InsightRules: []InsightRule{{
		Name: "always",
		When: func(Summary) bool { return true },
		Say:  func(s Summary) string { return "custom" },
	}}})

	r := e.GenerateReport(skincarePosts(), "护肤品")

	assert.Equal(t, []string{"custom"}, r.Insights)
}

func TestCompareCohorts(t *testing.T) {
	c := CompareCohorts([]Cohort{
		{Label: "B", Posts: []source.Post{postWith("b1", 1000, 0)}},
		{Label: "A", Posts: []source.Post{postWith("a1", 1500, 0), postWith("a2", 500, 0)}},
	})

	assert.Equal(t, []string{"B", "A"}, c.Keywords)
	assert.Equal(t, "A", c.Winner)
	require.Len(t, c.ComparisonChart, 2)
	assert.Equal(t, CohortStats{Keyword: "A", PostsCount: 2, TotalLikes: 2000, TotalEngagement: 2000, AvgEngagement: 1000}, c.ComparisonChart[0])
	require.Len(t, c.Insights, 1)
	assert.Contains(t, c.Insights[0], "2.0")
	assert.Equal(t, "「A」热度领先，是「B」的 2.0 倍", c.Insights[0])
}

func TestCompareCohortsEdgeCases(t *testing.T) {
	empty := CompareCohorts(nil)
	assert.Empty(t, empty.Winner)
	assert.Empty(t, empty.Insights)

	single := CompareCohorts([]Cohort{{Label: "solo"}})
	assert.Equal(t, "solo", single.Winner)
	assert.Empty(t, single.Insights)
	assert.Equal(t, 0.0, single.ComparisonChart[0].AvgEngagement)

	zeroRunnerUp := CompareCohorts([]Cohort{
		{Label: "A", Posts: []source.Post{postWith("a", 30, 0)}},
		{Label: "B", Posts: []source.Post{postWith("b", 0, 0)}},
	})
	assert.Equal(t, "「A」热度领先，是「B」的 30.0 倍", zeroRunnerUp.Insights[0])
}
