package alert

import (
	"context"
	"fmt"
)

// Slack sends notifications via Slack incoming webhook.
type Slack struct {
	poster jsonPoster
}

// NewSlack creates a new Slack notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{poster: newJSONPoster(webhookURL, "slack webhook")}
}

func (s *Slack) Name() string { return "slack" }

// Send posts a Block Kit message: header, summary, then one context line
// per listed post.
func (s *Slack) Send(ctx context.Context, n *Notification) error {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": "🔥 " + n.Title},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*榜单:* %s | *爆款:* %d\n%s", n.Category, len(n.Posts), n.Body),
			},
		},
	}

	if posts := n.listed(); len(posts) > 0 {
		elements := make([]map[string]any, len(posts))
		for i, p := range posts {
			elements[i] = map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("#%d <%s|%s> ❤️ %s 💬 %s · 质量 %.1f", p.Rank, p.URL, p.Title, p.Likes, p.Comments, p.QualityScore),
			}
		}
		blocks = append(blocks, map[string]any{"type": "context", "elements": elements})
	}

	return s.poster.post(ctx, map[string]any{"blocks": blocks}, nil)
}
