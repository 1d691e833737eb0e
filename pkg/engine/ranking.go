package engine

import (
	"sort"

	"github.com/elonfeng/redinsight/pkg/source"
)

// Strategy selects the heat formula used to rank a category.
type Strategy string

const (
	StrategyEngagement Strategy = "engagement"
	StrategyRising     Strategy = "rising"
	StrategyWeekly     Strategy = "weekly"
	StrategyDefault    Strategy = "default"
)

// Score returns the heat of a post with the given counts. Unknown
// strategies fall back to plain likes plus comments.
func (s Strategy) Score(likes, comments int) float64 {
	l, c := float64(likes), float64(comments)
	switch s {
	case StrategyEngagement:
		return l*1.0 + c*2.0
	case StrategyRising:
		return l*0.5 + c*3.0
	case StrategyWeekly:
		return l*1.2 + c*1.5
	default:
		return l + c
	}
}

// Trend is the label attached to a ranking item.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
	TrendNew    Trend = "new"
)

// Category describes one ranking board.
type Category struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	SortBy      Strategy `json:"sort_by"`
}

// DefaultCategory is used for unknown category names.
const DefaultCategory = "hot"

var categories = []Category{
	{"hot", "🔥 热门内容榜", "当前小红书最热门的内容", []string{"热门", "爆款", "必看"}, StrategyEngagement},
	{"rising", "🚀 新晋爆款榜", "近期快速上升的热门内容", []string{"新发现", "小众", "宝藏"}, StrategyRising},
	{"weekly", "📅 本周热榜", "本周最受欢迎的内容", []string{"本周", "周榜"}, StrategyWeekly},
	{"beauty", "💄 美妆护肤榜", "热门美妆护肤产品和技巧", []string{"美妆推荐", "护肤品", "化妆教程", "skincare"}, StrategyEngagement},
	{"fashion", "👗 穿搭时尚榜", "流行穿搭风格和搭配灵感", []string{"穿搭分享", "ootd", "时尚穿搭", "日常穿搭"}, StrategyEngagement},
	{"food", "🍜 美食探店榜", "热门美食推荐和探店攻略", []string{"美食推荐", "探店", "美食攻略", "好吃"}, StrategyEngagement},
	{"travel", "✈️ 旅行目的地榜", "热门旅行目的地和攻略", []string{"旅行攻略", "旅游推荐", "出行", "打卡"}, StrategyEngagement},
	{"fitness", "💪 健身运动榜", "健身减脂技巧和运动分享", []string{"健身打卡", "减脂", "运动", "瑜伽"}, StrategyEngagement},
	{"digital", "📱 数码科技榜", "数码产品评测和使用技巧", []string{"数码测评", "手机推荐", "电子产品", "科技"}, StrategyEngagement},
	{"home", "🏠 家居生活榜", "家居好物和生活技巧", []string{"家居好物", "收纳", "装修", "居家"}, StrategyEngagement},
	{"pet", "🐱 萌宠榜", "宠物日常和养宠技巧", []string{"猫咪", "狗狗", "萌宠", "养宠"}, StrategyEngagement},
	{"mother", "👶 母婴亲子榜", "母婴产品和育儿经验", []string{"母婴好物", "育儿", "宝宝", "亲子"}, StrategyEngagement},
}

// OverviewCategories are the boards summarized by the category overview.
var OverviewCategories = []string{"beauty", "fashion", "food", "travel", "fitness", "digital"}

// Categories returns a copy of every ranking category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		c.Keywords = append([]string(nil), c.Keywords...)
		out[i] = c
	}
	return out
}

// LookupCategory finds a category by type name.
func LookupCategory(name string) (Category, bool) {
	for _, c := range categories {
		if c.Type == name {
			c.Keywords = append([]string(nil), c.Keywords...)
			return c, true
		}
	}
	return Category{}, false
}

// ResolveCategory is LookupCategory falling back to the hot board.
func ResolveCategory(name string) Category {
	if c, ok := LookupCategory(name); ok {
		return c
	}
	c, _ := LookupCategory(DefaultCategory)
	return c
}

// RankingItem is one ranked post.
type RankingItem struct {
	Rank       int         `json:"rank"`
	Post       source.Post `json:"post"`
	Score      float64     `json:"score"`
	Trend      Trend       `json:"trend"`
	TrendValue int         `json:"trend_value"`
}

// RankingResult is a complete ranking board.
type RankingResult struct {
	RankingType     string        `json:"ranking_type"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Items           []RankingItem `json:"items"`
	TotalEngagement int           `json:"total_engagement"`
	AvgScore        float64       `json:"avg_score"`
	GeneratedAt     string        `json:"generated_at"`
}

// positionalTrend labels the item at 0-based position i. The labels are
// placeholders until score history is tracked: the first three are new,
// then even positions move up by maxItems-i and odd ones hold.
func positionalTrend(i, maxItems int) (Trend, int) {
	switch {
	case i < 3:
		return TrendNew, 0
	case i%2 == 0:
		return TrendUp, maxItems - i
	default:
		return TrendStable, 0
	}
}

// BuildRanking deduplicates posts, scores them with the category strategy
// and keeps the best maxItems.
func (e *Engine) BuildRanking(cat Category, posts []source.Post, maxItems int) RankingResult {
	if maxItems <= 0 {
		maxItems = 10
	}

	type scored struct {
		post  source.Post
		score float64
	}
	var ranked []scored
	for _, p := range Dedupe(posts) {
		ranked = append(ranked, scored{post: p, score: cat.SortBy.Score(LikeCount(p), CommentCount(p))})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxItems {
		ranked = ranked[:maxItems]
	}

	result := RankingResult{
		RankingType: cat.Type,
		Title:       cat.Title,
		Description: cat.Description,
		Items:       make([]RankingItem, 0, len(ranked)),
		GeneratedAt: e.timestamp(),
	}

	total := 0.0
	for i, r := range ranked {
		trend, value := positionalTrend(i, maxItems)
		item := RankingItem{
			Rank:       i + 1,
			Post:       r.post,
			Score:      round(r.score, 2),
			Trend:      trend,
			TrendValue: value,
		}
		total += item.Score
		result.Items = append(result.Items, item)
	}

	result.TotalEngagement = int(total)
	if len(result.Items) > 0 {
		result.AvgScore = round(total/float64(len(result.Items)), 2)
	}
	return result
}

// CategorySummary is one board inside the category overview.
type CategorySummary struct {
	Type       string        `json:"type"`
	Title      string        `json:"title"`
	TopItems   []RankingItem `json:"top_items"`
	TotalScore int           `json:"total_score"`
}

// Overview lists several boards side by side, hottest first.
type Overview struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Categories  []CategorySummary `json:"categories"`
	GeneratedAt string            `json:"generated_at"`
}

// BuildOverview summarizes rankings, keeping topN items of each, and sorts
// the boards by total engagement.
func (e *Engine) BuildOverview(rankings []RankingResult, topN int) Overview {
	o := Overview{
		Title:       "📊 分类热门概览",
		Description: "各分类热门内容一览",
		Categories:  make([]CategorySummary, 0, len(rankings)),
		GeneratedAt: e.timestamp(),
	}
	for _, r := range rankings {
		items := r.Items
		if topN > 0 && len(items) > topN {
			items = items[:topN]
		}
		o.Categories = append(o.Categories, CategorySummary{
			Type:       r.RankingType,
			Title:      r.Title,
			TopItems:   items,
			TotalScore: r.TotalEngagement,
		})
	}
	sort.SliceStable(o.Categories, func(i, j int) bool {
		return o.Categories[i].TotalScore > o.Categories[j].TotalScore
	})
	return o
}
