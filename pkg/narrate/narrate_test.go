package narrate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/elonfeng/redinsight/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestReportOpenAI(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compatible-mode/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"  护肤话题热度很高。\n"}}]}`)
	}))
	defer srv.Close()

	n := New("openai", "qwen-max", "sk-test", srv.URL+"/compatible-mode/v1/")
	report := engine.Report{Keyword: "护肤", TotalPosts: 2, Insights: []string{"📊 共分析 2 篇内容"}}
	posts := []source.Post{
		{Title: "早晚护肤步骤", Author: "小美", Likes: "1.2w", Comments: "300", Content: strings.Repeat("长", 300)},
		{Title: "平价防晒", Author: "阿强", Likes: "800", Comments: "20"},
	}

	text, err := n.Report(context.Background(), report, posts)
	require.NoError(t, err)
	assert.Equal(t, "护肤话题热度很高。", text)

	assert.Equal(t, "qwen-max", got.Model)
	require.Len(t, got.Messages, 1)
	prompt := got.Messages[0].Content
	assert.Contains(t, prompt, "「护肤」")
	assert.Contains(t, prompt, "1. 早晚护肤步骤 | 作者: 小美 | 点赞: 1.2w | 评论: 300")
	assert.Contains(t, prompt, "2. 平价防晒")
	assert.Contains(t, prompt, "📊 共分析 2 篇内容")
	assert.NotContains(t, prompt, strings.Repeat("长", 201))
}

func TestComparisonAnthropic(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"咖啡更热。"}]}`)
	}))
	defer srv.Close()

	n := New("anthropic", "", "sk-ant", srv.URL)
	assert.Equal(t, "claude-sonnet-4-20250514", n.Model())
	text, err := n.Comparison(context.Background(), engine.Comparison{Keywords: []string{"咖啡", "奶茶"}})
	require.NoError(t, err)
	assert.Equal(t, "咖啡更热。", text)
	assert.Equal(t, "claude-sonnet-4-20250514", got.Model)
	assert.Contains(t, got.Messages[0].Content, "「咖啡、奶茶」")
}

func TestNarratorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/messages") {
			fmt.Fprint(w, `{"content":[]}`)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	_, err := New("openai", "", "k", srv.URL).Comparison(context.Background(), engine.Comparison{})
	assert.ErrorContains(t, err, "openai status 429")

	_, err = New("anthropic", "", "k", srv.URL).Comparison(context.Background(), engine.Comparison{})
	assert.ErrorContains(t, err, "anthropic: no content returned")
}

func TestPostsContext(t *testing.T) {
	assert.Equal(t, "（无）", postsContext(nil))

	posts := make([]source.Post, 15)
	for i := range posts {
		posts[i] = source.Post{Title: fmt.Sprintf("p%d", i)}
	}
	lines := strings.Split(postsContext(posts), "\n")
	assert.Len(t, lines, maxContextPosts)
}
