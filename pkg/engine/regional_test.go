package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/redinsight/pkg/source"
)

func mustCity(t *testing.T, name string) CityProfile {
	t.Helper()
	c, ok := LookupCity(name)
	require.True(t, ok, name)
	return c
}

func TestLookupCity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"北京", "北京"},
		{"beijing", "北京"},
		{" Beijing ", "北京"},
		{"BJ", "北京"},
		{"帝都", "北京"},
		{"魔都", "上海"},
		{"chongqing", "重庆"},
		{"xiamen", "厦门"},
		{"大理古城", "大理"},
		{"丽江", "丽江"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCity(t, tt.in).Name)
		})
	}

	_, ok := LookupCity("纽约")
	assert.False(t, ok)
	_, ok = LookupCity("")
	assert.False(t, ok)
}

func TestCities(t *testing.T) {
	cities := Cities()
	require.Len(t, cities, 17)
	for _, c := range cities {
		assert.NotEmpty(t, c.Emoji, c.Name)
		assert.NotEmpty(t, c.HotTopics, c.Name)
		assert.NotEmpty(t, c.Specialties, c.Name)
	}
	for _, name := range TrendingSampleCities {
		mustCity(t, name)
	}
}

func TestRelevance(t *testing.T) {
	beijing := mustCity(t, "北京")
	p := source.Post{Title: "北京烤鸭攻略", Content: "去完故宫吃烤鸭 bj必打卡"}

	rp := Relevance(beijing, p)

	assert.Equal(t, "北京", rp.City)
	assert.Equal(t, 20.0, rp.RelevanceScore)
	assert.Equal(t, []string{"故宫"}, rp.TopicMatches)
	assert.Equal(t, []string{"烤鸭"}, rp.SpecialtyMatches)

	none := Relevance(beijing, source.Post{Title: "上海外滩夜景"})
	assert.Equal(t, 0.0, none.RelevanceScore)
	assert.Empty(t, none.TopicMatches)
}

func TestAnalyzeCity(t *testing.T) {
	shanghai := mustCity(t, "上海")
	posts := []source.Post{
		{Title: "外滩夜景", Author: "阿明", Likes: "100", Comments: "10"},
		{Title: "迪士尼攻略 外滩", Content: "附近的小笼包", Author: "阿明", Likes: "1k", Comments: "20"},
		{Title: "武康路咖啡", Content: "还有生煎和小笼包", Author: "小美", Likes: "300", Comments: "5"},
		{Title: "外滩夜景", Author: "重复", Likes: "9w"},
	}

	a := newTestEngine().AnalyzeCity(shanghai, posts, 2)

	assert.Equal(t, "上海", a.City)
	assert.Equal(t, "🌃", a.CityEmoji)
	assert.Equal(t, 3, a.TotalPosts)
	assert.Len(t, a.Posts, 2)
	assert.Equal(t, []TopicStat{
		{Topic: "外滩", Count: 2, Engagement: 1100},
		{Topic: "迪士尼", Count: 1, Engagement: 1000},
		{Topic: "武康路", Count: 1, Engagement: 300},
	}, a.HotTopics)
	assert.Equal(t, []string{"小笼包", "生煎", "咖啡"}, a.SpecialtiesMentioned)
	assert.Equal(t, 1435, a.TotalEngagement)
	assert.Equal(t, 478.33, a.AvgEngagement)
	require.Len(t, a.TopAuthors, 2)
	assert.Equal(t, "阿明", a.TopAuthors[0].Author)
	assert.NotEmpty(t, a.EngagementDistribution)
}

func TestAnalyzeCityEmpty(t *testing.T) {
	a := newTestEngine().AnalyzeCity(mustCity(t, "大理"), nil, 10)

	assert.Equal(t, 0, a.TotalPosts)
	assert.Empty(t, a.HotTopics)
	assert.Empty(t, a.SpecialtiesMentioned)
	assert.Equal(t, 0.0, a.AvgEngagement)
}

func TestCompareCities(t *testing.T) {
	e := newTestEngine()
	cd := e.AnalyzeCity(mustCity(t, "成都"), []source.Post{
		{Title: "春熙路火锅", Likes: "5000"},
		{Title: "宽窄巷子串串", Likes: "3000"},
	}, 5)
	cq := e.AnalyzeCity(mustCity(t, "重庆"), []source.Post{
		{Title: "洪崖洞火锅", Likes: "1000"},
		{Title: "解放碑小面", Likes: "500"},
	}, 5)

	c := e.CompareCities([]CityAnalysis{cq, cd})

	assert.Equal(t, []string{"重庆", "成都"}, c.Cities)
	assert.Equal(t, "成都", c.Winner)
	require.Len(t, c.ComparisonData, 2)
	assert.Equal(t, []string{"春熙路", "宽窄巷子"}, c.ComparisonData[0].TopTopics)
	assert.Equal(t, []string{"火锅", "串串"}, c.ComparisonData[0].Specialties)
	assert.Equal(t, []string{
		"🏆 成都 在该话题上热度最高，总互动量达 8000",
		"📊 成都 的平均互动量是 重庆 的 5.3 倍",
		"🔥 热门话题包括：春熙路, 宽窄巷子, 洪崖洞, 解放碑",
	}, c.Insights)
}

func TestCompareCitiesSingle(t *testing.T) {
	e := newTestEngine()
	c := e.CompareCities([]CityAnalysis{e.AnalyzeCity(mustCity(t, "杭州"), nil, 5)})

	assert.Equal(t, "杭州", c.Winner)
	assert.Empty(t, c.Insights)
}

func TestTrendingCities(t *testing.T) {
	heats := TrendingCities([]CityPosts{
		{City: mustCity(t, "上海"), Posts: []source.Post{{Title: "a", Likes: "10"}}},
		{City: mustCity(t, "北京"), Posts: []source.Post{
			{Title: "这是一个超过三十个字符的标题需要被截断才能放进样例列表里面去的", Likes: "1w"},
			{Title: "b", Likes: "5"},
			{Title: "c", Likes: "5"},
		}},
		{City: mustCity(t, "杭州")},
	}, 2)

	require.Len(t, heats, 2)
	assert.Equal(t, "北京", heats[0].City)
	assert.Equal(t, 10010, heats[0].TotalEngagement)
	assert.Equal(t, 3, heats[0].PostsCount)
	require.Len(t, heats[0].SamplePosts, 2)
	assert.Equal(t, 30, len([]rune(heats[0].SamplePosts[0])))
	assert.Equal(t, "上海", heats[1].City)
}
