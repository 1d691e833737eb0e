package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	redditAuthURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL  = "https://oauth.reddit.com"
)

// Reddit searches Reddit posts by keyword, optionally within subreddits.
type Reddit struct {
	client       *http.Client
	clientID     string
	clientSecret string
	subreddits   []string
	authURL      string
	apiURL       string
	logger       zerolog.Logger
	mu           sync.Mutex
	token        string
	tokenExpiry  time.Time
}

// NewReddit creates a new Reddit searcher. With no subreddits the whole
// site is searched.
func NewReddit(clientID, clientSecret string, subreddits []string, logger zerolog.Logger) *Reddit {
	return &Reddit{
		client:       &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		subreddits:   subreddits,
		authURL:      redditAuthURL,
		apiURL:       redditAPIURL,
		logger:       logger.With().Str("searcher", string(PlatformReddit)).Logger(),
	}
}

func (r *Reddit) Name() Platform { return PlatformReddit }

func (r *Reddit) Search(ctx context.Context, keyword string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}

	if len(r.subreddits) == 0 {
		return r.search(ctx, "/search.json", keyword, limit)
	}

	var all []Post
	var lastErr error
	for _, sub := range r.subreddits {
		posts, err := r.search(ctx, "/r/"+url.PathEscape(sub)+"/search.json", keyword, limit)
		if err != nil {
			r.logger.Warn().Err(err).Str("subreddit", sub).Msg("subreddit search failed")
			lastErr = err
			continue
		}
		all = append(all, posts...)
		if len(all) >= limit {
			break
		}
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}

	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "redinsight/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("reddit token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit auth status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode reddit token: %w", err)
	}

	r.token = tokenResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return nil
}

func (r *Reddit) search(ctx context.Context, path, keyword string, limit int) ([]Post, error) {
	q := url.Values{
		"q":     {keyword},
		"limit": {strconv.Itoa(limit)},
		"sort":  {"relevance"},
	}
	if strings.HasPrefix(path, "/r/") {
		q.Set("restrict_sr", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	token := r.token
	r.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "redinsight/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit search %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit search %q status %d", keyword, resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode reddit search %q: %w", keyword, err)
	}

	now := time.Now().UTC()
	var posts []Post
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}

		postURL := post.URL
		if postURL == "" || strings.HasPrefix(postURL, "/r/") {
			postURL = "https://reddit.com" + post.Permalink
		}

		posts = append(posts, Post{
			ID:          "reddit:" + post.ID,
			Title:       post.Title,
			Content:     truncate(post.Selftext, 500, true),
			Author:      post.Author,
			Likes:       strconv.Itoa(max(post.Score, 0)),
			Comments:    strconv.Itoa(post.NumComments),
			Tags:        []string{post.Subreddit},
			URL:         postURL,
			Platform:    PlatformReddit,
			CollectedAt: now,
		})
	}

	return posts, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Permalink   string `json:"permalink"`
	Selftext    string `json:"selftext"`
	Author      string `json:"author"`
	Subreddit   string `json:"subreddit"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	Stickied    bool   `json:"stickied"`
}
