package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/elonfeng/redinsight/pkg/source"
)

const reportPrompt = `你是一位小红书内容运营分析师。下面是关于「%s」的统计报告和部分帖子。

## 统计报告
%s

## 帖子
%s

请用 3 到 5 段中文写一份分析，包括：
1. 该话题整体热度和互动特征
2. 热词和标签反映出的用户关注点
3. 头部作者和爆款内容的共同点
4. 给内容创作者的具体建议

直接输出分析正文，不要使用 Markdown 标题。`

const comparisonPrompt = `你是一位小红书内容运营分析师。下面是「%s」的热度对比结果。

## 对比数据
%s

请用 2 到 4 段中文总结对比结论：哪个话题更热、差距有多大、各自适合什么样的内容方向，并给出最终建议。
直接输出分析正文，不要使用 Markdown 标题。`

// maxContextPosts bounds how many posts are quoted in a prompt.
const maxContextPosts = 10

// Narrator turns engine output into a prose analysis using an LLM.
type Narrator struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
}

// New creates a narrator. OpenAI-compatible endpoints (including
// DashScope and other proxies) are reached through baseURL.
func New(provider, model, apiKey, baseURL string) *Narrator {
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}
	return &Narrator{
		client:   &http.Client{Timeout: 60 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

// Model returns the model the narrator calls.
func (n *Narrator) Model() string { return n.model }

// Report writes an analysis of a keyword report and the posts behind it.
func (n *Narrator) Report(ctx context.Context, r engine.Report, posts []source.Post) (string, error) {
	stats, err := json.MarshalIndent(struct {
		TotalPosts    int              `json:"total_posts"`
		TotalLikes    int              `json:"total_likes"`
		AvgEngagement float64          `json:"avg_engagement"`
		HotWords      []engine.HotWord `json:"hot_words"`
		TopTags       []engine.TagStat `json:"top_tags"`
		Insights      []string         `json:"insights"`
	}{r.TotalPosts, r.TotalLikes, r.AvgEngagement, r.HotWords, r.TopTags, r.Insights}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	prompt := fmt.Sprintf(reportPrompt, r.Keyword, stats, postsContext(posts))
	return n.complete(ctx, prompt)
}

// Comparison writes an analysis of a cohort comparison.
func (n *Narrator) Comparison(ctx context.Context, c engine.Comparison) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode comparison: %w", err)
	}

	prompt := fmt.Sprintf(comparisonPrompt, strings.Join(c.Keywords, "、"), data)
	return n.complete(ctx, prompt)
}

func postsContext(posts []source.Post) string {
	var lines []string
	for i, p := range posts {
		if i >= maxContextPosts {
			break
		}
		line := fmt.Sprintf("%d. %s | 作者: %s | 点赞: %s | 评论: %s", i+1, p.Title, p.Author, p.Likes, p.Comments)
		if p.Content != "" {
			line += " | 内容: " + truncateStr(p.Content, 200)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "（无）"
	}
	return strings.Join(lines, "\n")
}

func (n *Narrator) complete(ctx context.Context, prompt string) (string, error) {
	var raw string
	var err error

	switch n.provider {
	case "anthropic":
		raw, err = n.callAnthropic(ctx, prompt)
	default:
		raw, err = n.callOpenAI(ctx, prompt)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (n *Narrator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	baseURL := n.baseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	payload := map[string]any{
		"model": n.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
		"max_tokens":  1500,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("openai status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (n *Narrator) callAnthropic(ctx context.Context, prompt string) (string, error) {
	baseURL := n.baseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	payload := map[string]any{
		"model":      n.model,
		"max_tokens": 1500,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", n.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("anthropic status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: no content returned")
	}
	return result.Content[0].Text, nil
}

func truncateStr(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
