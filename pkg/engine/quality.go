package engine

import (
	"sort"
	"unicode/utf8"

	"github.com/elonfeng/redinsight/pkg/source"
)

// ViralPotential is a coarse tier derived from a post's quality score.
type ViralPotential string

const (
	ViralLow    ViralPotential = "low"
	ViralMedium ViralPotential = "medium"
	ViralHigh   ViralPotential = "high"
)

// QualityScore is the composite quality of one post. Total is nominally
// 0-100 but is not clamped.
type QualityScore struct {
	PostID          string         `json:"post_id"`
	PostTitle       string         `json:"post_title"`
	TotalScore      float64        `json:"total_score"`
	EngagementScore float64        `json:"engagement_score"`
	ContentScore    float64        `json:"content_score"`
	AuthorScore     float64        `json:"author_score"`
	ViralPotential  ViralPotential `json:"viral_potential"`
}

const qualityTitleLen = 50

// Tier maps a total quality score to its viral potential.
func Tier(total float64) ViralPotential {
	switch {
	case total >= 70:
		return ViralHigh
	case total >= 45:
		return ViralMedium
	default:
		return ViralLow
	}
}

func countEmoji(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x1F300 && r <= 0x1F9FF {
			n++
		}
	}
	return n
}

// QualityScores scores every post against the best likes and comments in
// the set and returns them best first:
//
//	engagement (0-40) = likes/maxLikes×25 + comments/maxComments×15
//	content    (0-35) = title length, body richness, emoji and tag bonuses
//	author     (0-25) = min((likes + 2×comments)/(likes+1)×10, 25)
func QualityScores(posts []source.Post) []QualityScore {
	if len(posts) == 0 {
		return []QualityScore{}
	}

	maxLikes, maxComments := 1, 1
	for _, p := range posts {
		maxLikes = max(maxLikes, LikeCount(p))
		maxComments = max(maxComments, CommentCount(p))
	}

	scores := make([]QualityScore, 0, len(posts))
	for _, p := range posts {
		likes := float64(LikeCount(p))
		comments := float64(CommentCount(p))

		engagement := likes/float64(maxLikes)*25 + comments/float64(maxComments)*15

		titleLen := float64(utf8.RuneCountInString(p.Title))
		bodyLen := titleLen + float64(utf8.RuneCountInString(p.Content))
		content := min(titleLen/30, 1)*15 +
			min(bodyLen/200, 1)*10 +
			min(float64(countEmoji(p.Title+p.Content))*0.5, 5) +
			min(float64(len(p.Tags))*1.5, 5)

		author := min((likes+comments*2)/max(1, likes+1)*10, 25)

		total := round(engagement+content+author, 1)
		scores = append(scores, QualityScore{
			PostID:          p.ID,
			PostTitle:       truncateRunes(p.Title, qualityTitleLen),
			TotalScore:      total,
			EngagementScore: round(engagement, 1),
			ContentScore:    round(content, 1),
			AuthorScore:     round(author, 1),
			ViralPotential:  Tier(total),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	return scores
}
