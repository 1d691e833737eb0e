package source

import (
	"context"
	"errors"
	"time"
)

// Platform identifies which platform a post came from.
type Platform string

const (
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformReddit      Platform = "reddit"
	PlatformHackerNews  Platform = "hackernews"
	PlatformRSS         Platform = "rss"
	PlatformDemo        Platform = "demo"
)

// ErrNoResults is returned when a search produced no posts.
var ErrNoResults = errors.New("no posts found")

// Post is the standardized post record produced by every searcher.
// Likes and Comments keep the raw display form ("2.3w", "8.5k", "1234");
// callers normalize them before doing arithmetic.
type Post struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	Author      string    `json:"author" db:"author"`
	Likes       string    `json:"likes" db:"likes"`
	Comments    string    `json:"comments" db:"comments"`
	Tags        []string  `json:"tags" db:"-"`
	URL         string    `json:"url" db:"url"`
	Platform    Platform  `json:"platform,omitempty" db:"platform"`
	CollectedAt time.Time `json:"collected_at,omitempty" db:"collected_at"`
	TagsJSON    string    `json:"-" db:"tags"`
}

// Searcher is the interface every keyword searcher must implement.
type Searcher interface {
	Name() Platform
	Search(ctx context.Context, keyword string, limit int) ([]Post, error)
}

// truncate cuts s to at most n runes, marking the cut with "..." when
// ellipsis is set.
func truncate(s string, n int, ellipsis bool) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if ellipsis {
		return string(r[:n]) + "..."
	}
	return string(r[:n])
}
