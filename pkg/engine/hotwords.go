package engine

import (
	"sort"

	"github.com/elonfeng/redinsight/pkg/source"
)

// HotWord is a frequent word weighted by how much engagement it rides on.
type HotWord struct {
	Word         string  `json:"word"`
	Count        int     `json:"count"`
	Weight       float64 `json:"weight"`
	RelatedPosts int     `json:"related_posts"`
}

// minWordSupport is the number of distinct posts a word must appear in.
const minWordSupport = 2

type wordStats struct {
	word       string
	count      int
	engagement int
	posts      int
}

// HotWords ranks the words of posts by 0.4 × relative frequency plus
// 0.6 × relative like engagement. Words seen in fewer than two posts are
// dropped before the maxima are taken. Ties keep first-seen order.
func HotWords(posts []source.Post, topN int) []HotWord {
	index := make(map[string]*wordStats)
	var order []*wordStats

	for _, p := range posts {
		likes := LikeCount(p)
		seen := make(map[string]bool)
		for _, w := range Tokenize(postText(p.Title, p.Content)) {
			st, ok := index[w]
			if !ok {
				st = &wordStats{word: w}
				index[w] = st
				order = append(order, st)
			}
			if !seen[w] {
				seen[w] = true
				st.posts++
			}
			st.count++
			st.engagement += likes
		}
	}

	var supported []*wordStats
	maxCount, maxEngagement := 0, 0
	for _, st := range order {
		if st.posts < minWordSupport {
			continue
		}
		supported = append(supported, st)
		maxCount = max(maxCount, st.count)
		maxEngagement = max(maxEngagement, st.engagement)
	}

	words := make([]HotWord, 0, len(supported))
	for _, st := range supported {
		weight := ratio(float64(st.count), float64(maxCount))*0.4 +
			ratio(float64(st.engagement), float64(maxEngagement))*0.6
		words = append(words, HotWord{
			Word:         st.word,
			Count:        st.count,
			Weight:       round(weight, 3),
			RelatedPosts: st.posts,
		})
	}

	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Weight > words[j].Weight
	})
	if topN > 0 && len(words) > topN {
		words = words[:topN]
	}
	return words
}
