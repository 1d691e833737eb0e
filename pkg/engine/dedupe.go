package engine

import "github.com/elonfeng/redinsight/pkg/source"

// dedupeKeyLen is how many leading title characters identify a post.
const dedupeKeyLen = 30

// Dedupe drops posts whose first 30 title characters match an earlier
// post. Order is preserved and the first occurrence wins.
func Dedupe(posts []source.Post) []source.Post {
	seen := make(map[string]bool, len(posts))
	out := make([]source.Post, 0, len(posts))
	for _, p := range posts {
		key := truncateRunes(p.Title, dedupeKeyLen)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
