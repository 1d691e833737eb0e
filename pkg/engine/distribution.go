package engine

import "github.com/elonfeng/redinsight/pkg/source"

// EngagementBucket counts the posts whose engagement falls in one range.
type EngagementBucket struct {
	RangeLabel      string  `json:"range_label"`
	Count           int     `json:"count"`
	Percentage      float64 `json:"percentage"`
	TotalEngagement int     `json:"total_engagement"`
}

// engagementRange is the half-open interval [min, max); max < 0 is unbounded.
type engagementRange struct {
	min, max int
	label    string
}

func (r engagementRange) contains(n int) bool {
	return n >= r.min && (r.max < 0 || n < r.max)
}

var engagementRanges = []engagementRange{
	{0, 100, "0-100"},
	{100, 500, "100-500"},
	{500, 1000, "500-1k"},
	{1000, 5000, "1k-5k"},
	{5000, 10000, "5k-1w"},
	{10000, 50000, "1w-5w"},
	{50000, -1, "5w+"},
}

// Distribution buckets posts by engagement. Empty buckets are omitted and
// percentages are taken over all posts, rounded to one decimal.
func Distribution(posts []source.Post) []EngagementBucket {
	if len(posts) == 0 {
		return []EngagementBucket{}
	}

	counts := make([]int, len(engagementRanges))
	totals := make([]int, len(engagementRanges))
	for _, p := range posts {
		eng := Engagement(p)
		for i, r := range engagementRanges {
			if r.contains(eng) {
				counts[i]++
				totals[i] += eng
				break
			}
		}
	}

	buckets := []EngagementBucket{}
	for i, r := range engagementRanges {
		if counts[i] == 0 {
			continue
		}
		buckets = append(buckets, EngagementBucket{
			RangeLabel:      r.label,
			Count:           counts[i],
			Percentage:      round(float64(counts[i])/float64(len(posts))*100, 1),
			TotalEngagement: totals[i],
		})
	}
	return buckets
}
