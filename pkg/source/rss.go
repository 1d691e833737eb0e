package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// RSSFeed is a named RSS/Atom feed URL.
type RSSFeed struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// RSS searches a fixed set of RSS/Atom feeds for entries mentioning a keyword.
// Feeds carry no engagement numbers so likes and comments are always "0".
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []RSSFeed
	filter *Filter
	maxAge time.Duration
	logger zerolog.Logger
}

// NewRSS creates a new RSS searcher. Entries older than maxAge are skipped
// unless maxAge is zero.
func NewRSS(feeds []RSSFeed, filter *Filter, maxAge time.Duration, logger zerolog.Logger) *RSS {
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		filter: filter,
		maxAge: maxAge,
		logger: logger.With().Str("searcher", string(PlatformRSS)).Logger(),
	}
}

func (r *RSS) Name() Platform { return PlatformRSS }

func (r *RSS) Search(ctx context.Context, keyword string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 10
	}
	match := r.filter.With(keyword)

	var all []Post
	for _, feed := range r.feeds {
		posts, err := r.searchFeed(ctx, feed, keyword, match)
		if err != nil {
			r.logger.Warn().Err(err).Str("feed", feed.Name).Msg("feed fetch failed")
			continue
		}
		all = append(all, posts...)
		if len(all) >= limit {
			return all[:limit], nil
		}
	}
	return all, nil
}

func (r *RSS) searchFeed(ctx context.Context, feed RSSFeed, keyword string, match *Filter) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "redinsight/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	now := time.Now().UTC()
	var posts []Post
	for _, entry := range parsed.Items {
		if r.maxAge > 0 {
			published := entry.PublishedParsed
			if published == nil {
				published = entry.UpdatedParsed
			}
			if published != nil && now.Sub(*published) > r.maxAge {
				continue
			}
		}

		if !match.Matches(entry.Title + " " + entry.Description) {
			continue
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}

		tags := append([]string{keyword}, entry.Categories...)
		id := entry.GUID
		if id == "" {
			id = link
		}

		posts = append(posts, Post{
			ID:          fmt.Sprintf("rss:%s:%s", feed.Name, id),
			Title:       entry.Title,
			Content:     truncate(entry.Description, 500, true),
			Author:      author,
			Likes:       "0",
			Comments:    "0",
			Tags:        tags,
			URL:         link,
			Platform:    PlatformRSS,
			CollectedAt: now,
		})
	}

	return posts, nil
}
