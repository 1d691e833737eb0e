package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedditSearch(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		fmt.Fprint(w, `{"access_token":"tok","expires_in":3600}`)
	})
	mux.HandleFunc("/r/SkincareAddiction/search.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "sunscreen", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"id":"a1","title":"Best sunscreen","permalink":"/r/SkincareAddiction/comments/a1","selftext":"long text","author":"sun","subreddit":"SkincareAddiction","score":1234,"num_comments":56}},
			{"data":{"id":"a2","title":"Weekly thread","stickied":true,"score":1}},
			{"data":{"id":"a3","title":"Downvoted","url":"https://example.com/x","author":"grump","subreddit":"SkincareAddiction","score":-4,"num_comments":2}}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewReddit("id", "secret", []string{"SkincareAddiction"}, zerolog.Nop())
	r.authURL = srv.URL + "/token"
	r.apiURL = srv.URL

	posts, err := r.Search(context.Background(), "sunscreen", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, Post{
		ID:          "reddit:a1",
		Title:       "Best sunscreen",
		Content:     "long text",
		Author:      "sun",
		Likes:       "1234",
		Comments:    "56",
		Tags:        []string{"SkincareAddiction"},
		URL:         "https://reddit.com/r/SkincareAddiction/comments/a1",
		Platform:    PlatformReddit,
		CollectedAt: posts[0].CollectedAt,
	}, posts[0])
	assert.Equal(t, "0", posts[1].Likes)
	assert.Equal(t, "https://example.com/x", posts[1].URL)

	_, err = r.Search(context.Background(), "sunscreen", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls, "token is cached")
}

func TestRedditAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := NewReddit("id", "bad", nil, zerolog.Nop())
	r.authURL = srv.URL

	_, err := r.Search(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reddit auth")
}

func TestHackerNewsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "rust", r.URL.Query().Get("query"))
		assert.Equal(t, "story", r.URL.Query().Get("tags"))
		assert.Equal(t, "3", r.URL.Query().Get("hitsPerPage"))
		fmt.Fprint(w, `{"hits":[
			{"objectID":"1","title":"Rust 2.0","url":"https://rust-lang.org","author":"steve","points":500,"num_comments":120},
			{"objectID":"2","title":"Ask HN: Rust jobs?","author":"job","points":10,"num_comments":3,"story_text":"hiring"},
			{"objectID":"3","title":"","points":1},
			{"objectID":"4","title":"Rust crypto scam","points":99}
		]}`)
	}))
	defer srv.Close()

	h := NewHackerNews(NewFilter(nil, []string{"scam"}))
	h.baseURL = srv.URL

	posts, err := h.Search(context.Background(), "rust", 3)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "hackernews:1", posts[0].ID)
	assert.Equal(t, "500", posts[0].Likes)
	assert.Equal(t, "120", posts[0].Comments)
	assert.Equal(t, "https://rust-lang.org", posts[0].URL)
	assert.Equal(t, []string{"rust"}, posts[0].Tags)
	assert.Equal(t, "https://news.ycombinator.com/item?id=2", posts[1].URL)
	assert.Equal(t, "hiring", posts[1].Content)
}

func TestHackerNewsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := NewHackerNews(nil)
	h.baseURL = srv.URL

	_, err := h.Search(context.Background(), "x", 0)
	assert.ErrorContains(t, err, "status 503")
}

func TestRSSSearch(t *testing.T) {
	now := time.Now().UTC()
	feed := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>notes</title>
<item><title>上海咖啡探店合集</title><link>https://example.com/1</link><guid>g1</guid>
<description>武康路的咖啡</description><category>咖啡</category><pubDate>%s</pubDate></item>
<item><title>北京烤鸭</title><link>https://example.com/2</link><guid>g2</guid><pubDate>%s</pubDate></item>
<item><title>旧的咖啡帖子</title><link>https://example.com/3</link><guid>g3</guid><pubDate>%s</pubDate></item>
</channel></rss>`,
		now.Format(time.RFC1123Z), now.Format(time.RFC1123Z), now.Add(-72*time.Hour).Format(time.RFC1123Z))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feed)
	}))
	defer srv.Close()

	r := NewRSS([]RSSFeed{{Name: "broken", URL: srv.URL + "/missing\x7f"}, {Name: "notes", URL: srv.URL}}, nil, 24*time.Hour, zerolog.Nop())

	posts, err := r.Search(context.Background(), "咖啡", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "rss:notes:g1", posts[0].ID)
	assert.Equal(t, "上海咖啡探店合集", posts[0].Title)
	assert.Equal(t, "0", posts[0].Likes)
	assert.Equal(t, "0", posts[0].Comments)
	assert.Equal(t, []string{"咖啡", "咖啡"}, posts[0].Tags)
	assert.Equal(t, PlatformRSS, posts[0].Platform)
}
