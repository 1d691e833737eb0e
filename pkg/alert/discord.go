package alert

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// xhsRed is the embed accent color.
const xhsRed = 0xFF2442

// Discord sends notifications via Discord webhook.
type Discord struct {
	poster jsonPoster
	now    func() time.Time
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		poster: newJSONPoster(webhookURL, "discord webhook"),
		now:    time.Now,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var links []string
	for _, p := range n.listed() {
		links = append(links, fmt.Sprintf("%d. [%s](%s) ❤️ %s 💬 %s", p.Rank, p.Title, p.URL, p.Likes, p.Comments))
	}

	embed := map[string]any{
		"title":       "🔥 " + n.Title,
		"description": fmt.Sprintf("**榜单:** %s | **爆款:** %d\n\n%s\n\n%s", n.Category, len(n.Posts), n.Body, strings.Join(links, "\n")),
		"color":       xhsRed,
		"timestamp":   d.now().UTC().Format(time.RFC3339),
	}
	return d.poster.post(ctx, map[string]any{"embeds": []map[string]any{embed}}, nil)
}
