package engine

import (
	"fmt"
	"sort"

	"github.com/elonfeng/redinsight/pkg/source"
)

// Cohort is a labelled post collection taking part in a comparison.
type Cohort struct {
	Label string
	Posts []source.Post
}

// CohortStats are the engagement totals of one cohort.
type CohortStats struct {
	Keyword         string  `json:"keyword"`
	PostsCount      int     `json:"posts_count"`
	TotalLikes      int     `json:"total_likes"`
	TotalComments   int     `json:"total_comments"`
	TotalEngagement int     `json:"total_engagement"`
	AvgEngagement   float64 `json:"avg_engagement"`
}

// Comparison ranks cohorts by total engagement.
type Comparison struct {
	Keywords        []string      `json:"keywords"`
	ComparisonChart []CohortStats `json:"comparison_chart"`
	Winner          string        `json:"winner,omitempty"`
	Insights        []string      `json:"insights"`
}

// CompareCohorts totals each cohort, sorts them by total engagement and
// names the leader. With two or more cohorts the leader's lead over the
// runner-up is reported as a ratio with one decimal.
func CompareCohorts(cohorts []Cohort) Comparison {
	c := Comparison{
		Keywords:        make([]string, 0, len(cohorts)),
		ComparisonChart: make([]CohortStats, 0, len(cohorts)),
		Insights:        []string{},
	}

	for _, cohort := range cohorts {
		st := CohortStats{Keyword: cohort.Label, PostsCount: len(cohort.Posts)}
		for _, p := range cohort.Posts {
			st.TotalLikes += LikeCount(p)
			st.TotalComments += CommentCount(p)
		}
		st.TotalEngagement = st.TotalLikes + st.TotalComments
		if st.PostsCount > 0 {
			st.AvgEngagement = round(float64(st.TotalEngagement)/float64(st.PostsCount), 1)
		}
		c.Keywords = append(c.Keywords, cohort.Label)
		c.ComparisonChart = append(c.ComparisonChart, st)
	}

	sort.SliceStable(c.ComparisonChart, func(i, j int) bool {
		return c.ComparisonChart[i].TotalEngagement > c.ComparisonChart[j].TotalEngagement
	})

	if len(c.ComparisonChart) == 0 {
		return c
	}
	c.Winner = c.ComparisonChart[0].Keyword

	if len(c.ComparisonChart) >= 2 {
		first, second := c.ComparisonChart[0], c.ComparisonChart[1]
		lead := float64(first.TotalEngagement) / float64(max(second.TotalEngagement, 1))
		c.Insights = append(c.Insights,
			fmt.Sprintf("「%s」热度领先，是「%s」的 %.1f 倍", first.Keyword, second.Keyword, lead))
	}
	return c
}
