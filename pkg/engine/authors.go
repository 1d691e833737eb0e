package engine

import (
	"sort"
	"strings"

	"github.com/elonfeng/redinsight/pkg/source"
)

// AuthorStats summarizes the posts of one author.
type AuthorStats struct {
	Author        string  `json:"author"`
	PostsCount    int     `json:"posts_count"`
	TotalLikes    int     `json:"total_likes"`
	TotalComments int     `json:"total_comments"`
	AvgEngagement float64 `json:"avg_engagement"`
	TopPost       string  `json:"top_post"`
}

const topPostTitleLen = 40

func knownAuthor(name string) bool {
	return name != "" && name != "未知" && !strings.EqualFold(name, "unknown")
}

// TopAuthors groups posts by author, skipping anonymous ones, and returns
// the authors with the most likes.
func TopAuthors(posts []source.Post, topN int) []AuthorStats {
	type acc struct {
		stats   AuthorStats
		topLike int
	}
	index := make(map[string]*acc)
	var order []*acc

	for _, p := range posts {
		if !knownAuthor(p.Author) {
			continue
		}
		a, ok := index[p.Author]
		if !ok {
			a = &acc{stats: AuthorStats{Author: p.Author}}
			index[p.Author] = a
			order = append(order, a)
		}

		likes := LikeCount(p)
		a.stats.PostsCount++
		a.stats.TotalLikes += likes
		a.stats.TotalComments += CommentCount(p)
		if likes > a.topLike {
			a.topLike = likes
			a.stats.TopPost = truncateRunes(p.Title, topPostTitleLen)
		}
	}

	authors := make([]AuthorStats, 0, len(order))
	for _, a := range order {
		s := a.stats
		s.AvgEngagement = round(float64(s.TotalLikes+s.TotalComments)/float64(s.PostsCount), 1)
		authors = append(authors, s)
	}

	sort.SliceStable(authors, func(i, j int) bool {
		return authors[i].TotalLikes > authors[j].TotalLikes
	})
	if topN > 0 && len(authors) > topN {
		authors = authors[:topN]
	}
	return authors
}
