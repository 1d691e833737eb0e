package engine

import (
	"sort"
	"unicode/utf8"

	"github.com/elonfeng/redinsight/pkg/source"
)

// TagStat aggregates one tag across posts.
type TagStat struct {
	Tag        string `json:"tag"`
	Count      int    `json:"count"`
	Engagement int    `json:"engagement"`
}

// TopTags counts tags longer than one character and sums the likes of the
// posts carrying them, sorted by that like sum.
func TopTags(posts []source.Post, topN int) []TagStat {
	index := make(map[string]int)
	tags := []TagStat{}

	for _, p := range posts {
		likes := LikeCount(p)
		for _, tag := range p.Tags {
			if utf8.RuneCountInString(tag) <= 1 {
				continue
			}
			i, ok := index[tag]
			if !ok {
				i = len(tags)
				index[tag] = i
				tags = append(tags, TagStat{Tag: tag})
			}
			tags[i].Count++
			tags[i].Engagement += likes
		}
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Engagement > tags[j].Engagement
	})
	if topN > 0 && len(tags) > topN {
		tags = tags[:topN]
	}
	return tags
}
