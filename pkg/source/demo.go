package source

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Demo returns deterministic sample posts for any keyword. It is the last
// searcher in a chain so the API still answers when every platform
// refuses to serve results.
type Demo struct {
	now func() time.Time
}

// NewDemo creates a demo searcher.
func NewDemo() *Demo {
	return &Demo{now: time.Now}
}

func (d *Demo) Name() Platform { return PlatformDemo }

func (d *Demo) Search(_ context.Context, keyword string, limit int) ([]Post, error) {
	now := d.now().UTC()
	link := "https://www.xiaohongshu.com/search_result?keyword=" + url.QueryEscape(keyword)

	samples := []struct {
		title, content, author, likes, comments, tag string
	}{
		{
			fmt.Sprintf("【超详细】%s保姆级攻略分享 🎯", keyword),
			fmt.Sprintf("分享一下我关于%s的心得体会！经过多次尝试总结出来的经验，希望对大家有帮助~", keyword),
			"生活小达人", "2.3w", "1856", "干货分享",
		},
		{
			fmt.Sprintf("%s这样做才对！亲测有效 ✨", keyword),
			fmt.Sprintf("关于%s，我走过很多弯路，今天来分享正确的方法！", keyword),
			"时尚博主小美", "1.8w", "923", "亲测有效",
		},
		{
			fmt.Sprintf("新手必看！%s入门全攻略 📚", keyword),
			fmt.Sprintf("新手如何快速入门%s？这篇文章帮你解答所有疑问！", keyword),
			"知识分享官", "5.6w", "2341", "新手入门",
		},
		{
			fmt.Sprintf("真实测评 | %s深度体验报告 💯", keyword),
			fmt.Sprintf("使用%s一个月后的真实感受分享~", keyword),
			"测评达人Max", "3.2w", "1567", "真实测评",
		},
		{
			fmt.Sprintf("%d最新！%s趋势解读 🔥", now.Year(), keyword),
			fmt.Sprintf("今年%s领域有哪些新趋势？一文带你了解最新动态！", keyword),
			"行业观察者", "4.1w", "1892", "趋势",
		},
	}

	posts := make([]Post, 0, len(samples))
	for i, s := range samples {
		posts = append(posts, Post{
			ID:          fmt.Sprintf("demo_%d", i+1),
			Title:       s.title,
			Content:     s.content,
			Author:      s.author,
			Likes:       s.likes,
			Comments:    s.comments,
			Tags:        []string{keyword, s.tag},
			URL:         link,
			Platform:    PlatformDemo,
			CollectedAt: now,
		})
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}
