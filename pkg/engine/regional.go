package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/elonfeng/redinsight/pkg/source"
)

// Relevance points awarded per kind of city mention.
const (
	cityNamePoints  = 10
	cityAliasPoints = 5
	cityTopicPoints = 3
	specialtyPoints = 2
)

// RegionalPost is a post scored against one city.
type RegionalPost struct {
	City             string      `json:"city"`
	Post             source.Post `json:"post"`
	RelevanceScore   float64     `json:"relevance_score"`
	TopicMatches     []string    `json:"topic_matches"`
	SpecialtyMatches []string    `json:"specialty_matches"`
}

// Relevance scores how strongly a post is about the city: 10 for the city
// name, 5 per alias, 3 per hot topic and 2 per specialty, matched as
// case-insensitive substrings of title and content.
func Relevance(city CityProfile, p source.Post) RegionalPost {
	text := strings.ToLower(postText(p.Title, p.Content))
	contains := func(s string) bool { return strings.Contains(text, strings.ToLower(s)) }

	rp := RegionalPost{
		City:             city.Name,
		Post:             p,
		TopicMatches:     []string{},
		SpecialtyMatches: []string{},
	}
	score := 0
	if contains(city.Name) {
		score += cityNamePoints
	}
	for _, alias := range city.Aliases {
		if contains(alias) {
			score += cityAliasPoints
		}
	}
	for _, topic := range city.HotTopics {
		if contains(topic) {
			score += cityTopicPoints
			rp.TopicMatches = append(rp.TopicMatches, topic)
		}
	}
	for _, specialty := range city.Specialties {
		if contains(specialty) {
			score += specialtyPoints
			rp.SpecialtyMatches = append(rp.SpecialtyMatches, specialty)
		}
	}
	rp.RelevanceScore = float64(score)
	return rp
}

// TopicStat aggregates the posts mentioning one city topic.
type TopicStat struct {
	Topic      string `json:"topic"`
	Count      int    `json:"count"`
	Engagement int    `json:"engagement"`
}

// CityAnalysis is the regional report for one city.
type CityAnalysis struct {
	City                   string             `json:"city"`
	CityEmoji              string             `json:"city_emoji"`
	TotalPosts             int                `json:"total_posts"`
	Posts                  []RegionalPost     `json:"posts"`
	HotTopics              []TopicStat        `json:"hot_topics"`
	SpecialtiesMentioned   []string           `json:"specialties_mentioned"`
	TotalEngagement        int                `json:"total_engagement"`
	AvgEngagement          float64            `json:"avg_engagement"`
	TopAuthors             []AuthorStats      `json:"top_authors"`
	EngagementDistribution []EngagementBucket `json:"engagement_distribution"`
	GeneratedAt            string             `json:"generated_at"`
}

const (
	cityHotTopicsTopN = 10
	cityAuthorsTopN   = 5
)

// AnalyzeCity deduplicates posts, scores each against the city and
// aggregates topic and specialty mentions. At most maxPosts scored posts
// are returned; all posts count toward the totals.
func (e *Engine) AnalyzeCity(city CityProfile, posts []source.Post, maxPosts int) CityAnalysis {
	posts = Dedupe(posts)
	if maxPosts <= 0 {
		maxPosts = 10
	}

	a := CityAnalysis{
		City:                   city.Name,
		CityEmoji:              city.Emoji,
		TotalPosts:             len(posts),
		Posts:                  []RegionalPost{},
		HotTopics:              []TopicStat{},
		SpecialtiesMentioned:   []string{},
		TopAuthors:             TopAuthors(posts, cityAuthorsTopN),
		EngagementDistribution: Distribution(posts),
		GeneratedAt:            e.timestamp(),
	}

	topicIndex := make(map[string]int)
	specialtySeen := make(map[string]bool)
	for _, p := range posts {
		rp := Relevance(city, p)
		if len(a.Posts) < maxPosts {
			a.Posts = append(a.Posts, rp)
		}

		likes := LikeCount(p)
		for _, topic := range rp.TopicMatches {
			i, ok := topicIndex[topic]
			if !ok {
				i = len(a.HotTopics)
				topicIndex[topic] = i
				a.HotTopics = append(a.HotTopics, TopicStat{Topic: topic})
			}
			a.HotTopics[i].Count++
			a.HotTopics[i].Engagement += likes
		}
		for _, specialty := range rp.SpecialtyMatches {
			if !specialtySeen[specialty] {
				specialtySeen[specialty] = true
				a.SpecialtiesMentioned = append(a.SpecialtiesMentioned, specialty)
			}
		}
		a.TotalEngagement += Engagement(p)
	}

	sort.SliceStable(a.HotTopics, func(i, j int) bool {
		return a.HotTopics[i].Engagement > a.HotTopics[j].Engagement
	})
	if len(a.HotTopics) > cityHotTopicsTopN {
		a.HotTopics = a.HotTopics[:cityHotTopicsTopN]
	}
	if len(posts) > 0 {
		a.AvgEngagement = round(float64(a.TotalEngagement)/float64(len(posts)), 2)
	}
	return a
}

// CitySummary is one row of a city comparison.
type CitySummary struct {
	City            string   `json:"city"`
	Emoji           string   `json:"emoji"`
	TotalPosts      int      `json:"total_posts"`
	TotalEngagement int      `json:"total_engagement"`
	AvgEngagement   float64  `json:"avg_engagement"`
	TopTopics       []string `json:"top_topics"`
	Specialties     []string `json:"specialties"`
}

// RegionalComparison ranks several cities on the same topic.
type RegionalComparison struct {
	Cities         []string      `json:"cities"`
	ComparisonData []CitySummary `json:"comparison_data"`
	Winner         string        `json:"winner"`
	Insights       []string      `json:"insights"`
	GeneratedAt    string        `json:"generated_at"`
}

const (
	comparisonTopicsPerCity = 3
	comparisonTopicsTotal   = 5
)

// CompareCities ranks city analyses by total engagement. With at least two
// cities it names the winner, reports the leader's average against the
// last city when it is more than double, and lists up to five topics.
func (e *Engine) CompareCities(analyses []CityAnalysis) RegionalComparison {
	c := RegionalComparison{
		Cities:         make([]string, 0, len(analyses)),
		ComparisonData: make([]CitySummary, 0, len(analyses)),
		Insights:       []string{},
		GeneratedAt:    e.timestamp(),
	}

	for _, a := range analyses {
		c.Cities = append(c.Cities, a.City)
		row := CitySummary{
			City:            a.City,
			Emoji:           a.CityEmoji,
			TotalPosts:      a.TotalPosts,
			TotalEngagement: a.TotalEngagement,
			AvgEngagement:   a.AvgEngagement,
			TopTopics:       []string{},
			Specialties:     a.SpecialtiesMentioned[:min(comparisonTopicsPerCity, len(a.SpecialtiesMentioned))],
		}
		for _, t := range a.HotTopics[:min(comparisonTopicsPerCity, len(a.HotTopics))] {
			row.TopTopics = append(row.TopTopics, t.Topic)
		}
		c.ComparisonData = append(c.ComparisonData, row)
	}

	sort.SliceStable(c.ComparisonData, func(i, j int) bool {
		return c.ComparisonData[i].TotalEngagement > c.ComparisonData[j].TotalEngagement
	})
	if len(c.ComparisonData) == 0 {
		return c
	}

	first, last := c.ComparisonData[0], c.ComparisonData[len(c.ComparisonData)-1]
	c.Winner = first.City
	if len(c.ComparisonData) < 2 {
		return c
	}

	c.Insights = append(c.Insights,
		fmt.Sprintf("🏆 %s 在该话题上热度最高，总互动量达 %d", first.City, first.TotalEngagement))

	if first.AvgEngagement > last.AvgEngagement*2 {
		lead := round(first.AvgEngagement/max(last.AvgEngagement, 1), 1)
		c.Insights = append(c.Insights,
			fmt.Sprintf("📊 %s 的平均互动量是 %s 的 %.1f 倍", first.City, last.City, lead))
	}

	var topics []string
	seen := make(map[string]bool)
	for _, row := range c.ComparisonData {
		for _, t := range row.TopTopics {
			if !seen[t] && len(topics) < comparisonTopicsTotal {
				seen[t] = true
				topics = append(topics, t)
			}
		}
	}
	if len(topics) > 0 {
		c.Insights = append(c.Insights, "🔥 热门话题包括："+strings.Join(topics, ", "))
	}
	return c
}

// CityPosts pairs a city with the posts found for it.
type CityPosts struct {
	City  CityProfile
	Posts []source.Post
}

// CityHeat is one entry of a trending-cities list.
type CityHeat struct {
	City            string   `json:"city"`
	Emoji           string   `json:"emoji"`
	PostsCount      int      `json:"posts_count"`
	TotalEngagement int      `json:"total_engagement"`
	SamplePosts     []string `json:"sample_posts"`
}

const (
	trendingSamplePosts    = 2
	trendingSampleTitleLen = 30
)

// TrendingCities ranks cities by the likes of their posts on a topic.
func TrendingCities(samples []CityPosts, maxCities int) []CityHeat {
	heats := make([]CityHeat, 0, len(samples))
	for _, s := range samples {
		h := CityHeat{
			City:        s.City.Name,
			Emoji:       s.City.Emoji,
			PostsCount:  len(s.Posts),
			SamplePosts: []string{},
		}
		for i, p := range s.Posts {
			h.TotalEngagement += LikeCount(p)
			if i < trendingSamplePosts {
				h.SamplePosts = append(h.SamplePosts, truncateRunes(p.Title, trendingSampleTitleLen))
			}
		}
		heats = append(heats, h)
	}

	sort.SliceStable(heats, func(i, j int) bool {
		return heats[i].TotalEngagement > heats[j].TotalEngagement
	})
	if maxCities > 0 && len(heats) > maxCities {
		heats = heats[:maxCities]
	}
	return heats
}
