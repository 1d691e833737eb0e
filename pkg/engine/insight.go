package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// NoDataInsight is the only insight produced for an empty post set.
const NoDataInsight = "暂无足够数据生成洞察"

// Summary holds the aggregate numbers insight rules are evaluated against.
type Summary struct {
	TotalPosts      int
	TotalLikes      int
	TotalComments   int
	TotalEngagement int
	AvgEngagement   float64
	HotWords        []HotWord
	Distribution    []EngagementBucket
	Authors         []AuthorStats
}

// InsightRule contributes one insight when When holds.
type InsightRule struct {
	Name string
	When func(Summary) bool
	Say  func(Summary) string
}

// DefaultInsightRules is the ordered rule set used for statistics reports.
var DefaultInsightRules = []InsightRule{
	{
		Name: "overview",
		When: func(Summary) bool { return true },
		Say: func(s Summary) string {
			return fmt.Sprintf("📊 共分析 %d 篇内容，总互动量 %s", s.TotalPosts, humanize.Comma(int64(s.TotalEngagement)))
		},
	},
	{
		Name: "heat",
		When: func(s Summary) bool { return s.AvgEngagement > 1000 },
		Say: func(s Summary) string {
			avg := humanize.Comma(int64(math.RoundToEven(s.AvgEngagement)))
			if s.AvgEngagement > 10000 {
				return fmt.Sprintf("🔥 平均互动量 %s，内容热度极高", avg)
			}
			return fmt.Sprintf("✨ 平均互动量 %s，内容热度较高", avg)
		},
	},
	{
		Name: "hot_words",
		When: func(s Summary) bool { return len(s.HotWords) >= 3 },
		Say: func(s Summary) string {
			top := s.HotWords[:min(5, len(s.HotWords))]
			words := make([]string, len(top))
			for i, hw := range top {
				words[i] = hw.Word
			}
			return "💬 热门关键词：" + strings.Join(words, ", ")
		},
	},
	{
		Name: "viral_share",
		When: func(s Summary) bool { return highEngagementShare(s.Distribution) > 20 },
		Say: func(s Summary) string {
			return fmt.Sprintf("🚀 %.1f%% 的内容互动量过万，爆款率较高", highEngagementShare(s.Distribution))
		},
	},
	{
		Name: "top_author",
		When: func(s Summary) bool { return len(s.Authors) > 0 },
		Say: func(s Summary) string {
			a := s.Authors[0]
			return fmt.Sprintf("👑 头部创作者「%s」贡献了 %s 点赞", a.Author, humanize.Comma(int64(a.TotalLikes)))
		},
	},
	{
		Name: "comment_rate",
		When: func(s Summary) bool {
			return s.TotalLikes > 0 && float64(s.TotalComments)/float64(s.TotalLikes) > 0.1
		},
		Say: func(s Summary) string {
			return fmt.Sprintf("💭 评论率 %.1f%%，用户讨论热度高", float64(s.TotalComments)/float64(s.TotalLikes)*100)
		},
	},
}

// highEngagementShare sums the percentages of buckets labelled with 1w or 5w.
func highEngagementShare(buckets []EngagementBucket) float64 {
	share := 0.0
	for _, b := range buckets {
		if strings.Contains(b.RangeLabel, "1w") || strings.Contains(b.RangeLabel, "5w") {
			share += b.Percentage
		}
	}
	return share
}

// Insights evaluates rules in order against s.
func Insights(s Summary, rules []InsightRule) []string {
	if s.TotalPosts == 0 {
		return []string{NoDataInsight}
	}
	insights := []string{}
	for _, r := range rules {
		if r.When(s) {
			insights = append(insights, r.Say(s))
		}
	}
	return insights
}
