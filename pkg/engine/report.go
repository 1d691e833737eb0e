package engine

import "github.com/elonfeng/redinsight/pkg/source"

// Report is the full statistics report for one keyword.
type Report struct {
	Keyword                string             `json:"keyword"`
	TotalPosts             int                `json:"total_posts"`
	TotalLikes             int                `json:"total_likes"`
	TotalComments          int                `json:"total_comments"`
	TotalEngagement        int                `json:"total_engagement"`
	AvgLikes               float64            `json:"avg_likes"`
	AvgComments            float64            `json:"avg_comments"`
	AvgEngagement          float64            `json:"avg_engagement"`
	MaxLikes               int                `json:"max_likes"`
	MaxComments            int                `json:"max_comments"`
	EngagementDistribution []EngagementBucket `json:"engagement_distribution"`
	HotWords               []HotWord          `json:"hot_words"`
	TopTags                []TagStat          `json:"top_tags"`
	TopAuthors             []AuthorStats      `json:"top_authors"`
	QualityScores          []QualityScore     `json:"quality_scores"`
	Insights               []string           `json:"insights"`
	GeneratedAt            string             `json:"generated_at"`
}

// GenerateReport deduplicates posts and builds the statistics report.
// An empty input yields a zero report with a single no-data insight.
func (e *Engine) GenerateReport(posts []source.Post, keyword string) Report {
	posts = Dedupe(posts)

	r := Report{
		Keyword:                keyword,
		TotalPosts:             len(posts),
		EngagementDistribution: Distribution(posts),
		HotWords:               HotWords(posts, e.hotWordsTopN),
		TopTags:                TopTags(posts, e.tagsTopN),
		TopAuthors:             TopAuthors(posts, e.authorsTopN),
		QualityScores:          QualityScores(posts),
		GeneratedAt:            e.timestamp(),
	}

	for _, p := range posts {
		likes, comments := LikeCount(p), CommentCount(p)
		r.TotalLikes += likes
		r.TotalComments += comments
		r.MaxLikes = max(r.MaxLikes, likes)
		r.MaxComments = max(r.MaxComments, comments)
	}
	r.TotalEngagement = r.TotalLikes + r.TotalComments

	var avgEngagement float64
	if n := float64(len(posts)); n > 0 {
		avgEngagement = float64(r.TotalEngagement) / n
		r.AvgLikes = round(float64(r.TotalLikes)/n, 1)
		r.AvgComments = round(float64(r.TotalComments)/n, 1)
		r.AvgEngagement = round(avgEngagement, 1)
	}

	r.Insights = Insights(Summary{
		TotalPosts:      r.TotalPosts,
		TotalLikes:      r.TotalLikes,
		TotalComments:   r.TotalComments,
		TotalEngagement: r.TotalEngagement,
		AvgEngagement:   avgEngagement,
		HotWords:        r.HotWords,
		Distribution:    r.EngagementDistribution,
		Authors:         r.TopAuthors,
	}, e.insightRules)
	return r
}
