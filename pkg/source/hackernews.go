package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const hnSearchURL = "https://hn.algolia.com/api/v1"

// HackerNews searches Hacker News stories through the Algolia API.
type HackerNews struct {
	client  *http.Client
	baseURL string
	filter  *Filter
}

// NewHackerNews creates a new HN searcher. filter may be nil.
func NewHackerNews(filter *Filter) *HackerNews {
	return &HackerNews{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: hnSearchURL,
		filter:  filter,
	}
}

func (h *HackerNews) Name() Platform { return PlatformHackerNews }

func (h *HackerNews) Search(ctx context.Context, keyword string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{
		"query":       {keyword},
		"tags":        {"story"},
		"hitsPerPage": {strconv.Itoa(limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create hn request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search hn %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hn search %q status %d", keyword, resp.StatusCode)
	}

	var result hnSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode hn search %q: %w", keyword, err)
	}

	now := time.Now().UTC()
	var posts []Post
	for _, hit := range result.Hits {
		if hit.Title == "" {
			continue
		}
		if !h.filter.Matches(hit.Title + " " + hit.StoryText) {
			continue
		}

		link := hit.URL
		if link == "" {
			link = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}

		posts = append(posts, Post{
			ID:          "hackernews:" + hit.ObjectID,
			Title:       hit.Title,
			Content:     truncate(hit.StoryText, 500, true),
			Author:      hit.Author,
			Likes:       strconv.Itoa(hit.Points),
			Comments:    strconv.Itoa(hit.NumComments),
			Tags:        []string{keyword},
			URL:         link,
			Platform:    PlatformHackerNews,
			CollectedAt: now,
		})
	}
	return posts, nil
}

type hnSearchResult struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	StoryText   string `json:"story_text"`
}
