package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	xhsBaseURL   = "https://www.xiaohongshu.com"
	xhsDomain    = ".xiaohongshu.com"
	xhsUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	xhsDefaultAuthor = "小红书用户"
	xhsTitleLen      = 100
	xhsContentLen    = 200
)

// XHSOptions tunes the headless browser used by the xiaohongshu searcher.
type XHSOptions struct {
	Headless bool
	// Timeout bounds one whole search including browser start-up.
	Timeout time.Duration
	// Settle is how long to wait after navigation for cards to render.
	Settle time.Duration
}

// XHS searches xiaohongshu notes by driving a headless Chrome through the
// web search page. A logged-in cookie string is needed for real results.
type XHS struct {
	cookies []*network.Cookie
	opts    XHSOptions
	logger  zerolog.Logger
}

// NewXHS creates a xiaohongshu searcher from a "name=value; ..." cookie header.
func NewXHS(cookie string, opts XHSOptions, logger zerolog.Logger) *XHS {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 3 * time.Second
	}
	return &XHS{
		cookies: ParseCookies(cookie, xhsDomain),
		opts:    opts,
		logger:  logger.With().Str("searcher", string(PlatformXiaohongshu)).Logger(),
	}
}

func (x *XHS) Name() Platform { return PlatformXiaohongshu }

// SearchURL returns the web search page for keyword.
func SearchURL(keyword string) string {
	return xhsBaseURL + "/search_result?keyword=" + url.QueryEscape(keyword) + "&source=web_search_result_notes"
}

// ParseCookies splits a browser cookie header into cookies for domain.
func ParseCookies(header, domain string) []*network.Cookie {
	var cookies []*network.Cookie
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &network.Cookie{
			Name:   name,
			Value:  strings.TrimSpace(value),
			Domain: domain,
			Path:   "/",
		})
	}
	return cookies
}

func (x *XHS) Search(ctx context.Context, keyword string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 5
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", x.opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "zh-CN"),
		chromedp.NoSandbox,
		chromedp.UserAgent(xhsUserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, x.opts.Timeout)
	defer timeoutCancel()

	if err := x.injectCookies(browserCtx); err != nil {
		return nil, fmt.Errorf("inject xhs cookies: %w", err)
	}

	target := SearchURL(keyword)
	x.logger.Debug().Str("url", target).Msg("opening search page")
	if err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(target),
		chromedp.Sleep(x.opts.Settle),
	); err != nil {
		return nil, fmt.Errorf("load xhs search page: %w", err)
	}

	var cards []rawNote
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(fmt.Sprintf(extractCardsJS, limit), &cards)); err != nil {
		x.logger.Warn().Err(err).Msg("card extraction failed")
	}

	now := time.Now().UTC()
	if posts := notesToPosts(cards, keyword, now); len(posts) > 0 {
		x.logger.Debug().Int("posts", len(posts)).Msg("extracted note cards")
		return limitPosts(posts, limit), nil
	}

	var state string
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(initialStateJS, &state)); err != nil {
		return nil, fmt.Errorf("read xhs page state: %w", err)
	}
	notes, err := parseInitialState(state)
	if err != nil {
		return nil, fmt.Errorf("parse xhs page state: %w", err)
	}
	return limitPosts(notesToPosts(notes, keyword, now), limit), nil
}

func (x *XHS) injectCookies(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range x.cookies {
				if err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					Do(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

func limitPosts(posts []Post, limit int) []Post {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

// rawNote is a note as read from the page, before cleaning.
type rawNote struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Author   string   `json:"author"`
	Likes    string   `json:"likes"`
	Comments string   `json:"comments"`
	Link     string   `json:"link"`
	Tags     []string `json:"tags"`
}

var exploreID = regexp.MustCompile(`/explore/([a-zA-Z0-9]+)`)

// notesToPosts cleans raw notes, filling the gaps the page leaves.
func notesToPosts(notes []rawNote, keyword string, now time.Time) []Post {
	posts := make([]Post, 0, len(notes))
	for i, n := range notes {
		link := strings.TrimSpace(n.Link)
		if link != "" && !strings.HasPrefix(link, "http") {
			link = xhsBaseURL + link
		}

		id := n.ID
		if id == "" {
			if m := exploreID.FindStringSubmatch(link); m != nil {
				id = m[1]
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		if link == "" {
			link = xhsBaseURL + "/explore/" + id
		}

		title := strings.TrimSpace(n.Title)
		if title == "" {
			title = fmt.Sprintf("%s相关内容 %d", keyword, i+1)
		}
		author := strings.TrimSpace(n.Author)
		if author == "" {
			author = xhsDefaultAuthor
		}
		tags := n.Tags
		if len(tags) == 0 {
			tags = []string{keyword}
		}

		posts = append(posts, Post{
			ID:          id,
			Title:       truncate(title, xhsTitleLen, false),
			Content:     truncate(strings.TrimSpace(n.Content), xhsContentLen, false),
			Author:      author,
			Likes:       orZero(n.Likes),
			Comments:    orZero(n.Comments),
			Tags:        tags,
			URL:         link,
			Platform:    PlatformXiaohongshu,
			CollectedAt: now,
		})
	}
	return posts
}

func orZero(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "0"
	}
	return s
}

// parseInitialState reads notes out of the serialized window.__INITIAL_STATE__.
func parseInitialState(state string) ([]rawNote, error) {
	state = strings.TrimSpace(state)
	if state == "" || state == "null" {
		return nil, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(state), &data); err != nil {
		return nil, err
	}

	var entries []any
	if search, ok := data["search"].(map[string]any); ok {
		entries = unwrapList(search["notes"])
		if len(entries) == 0 {
			entries = unwrapList(search["feeds"])
		}
	}
	if len(entries) == 0 {
		if note, ok := data["note"].(map[string]any); ok {
			if detail, ok := note["noteDetailMap"].(map[string]any); ok {
				keys := make([]string, 0, len(detail))
				for k := range detail {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					entries = append(entries, detail[k])
				}
			}
		}
	}

	var notes []rawNote
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"noteCard", "note"} {
			if inner, ok := m[key].(map[string]any); ok {
				if _, hasID := inner["noteId"]; !hasID {
					if id, ok := m["id"]; ok {
						inner["noteId"] = id
					}
				}
				m = inner
				break
			}
		}

		user, _ := m["user"].(map[string]any)
		interact, _ := m["interactInfo"].(map[string]any)
		notes = append(notes, rawNote{
			ID:       firstString(m, "noteId", "id"),
			Title:    firstString(m, "title", "displayTitle"),
			Content:  firstString(m, "desc"),
			Author:   firstNonEmpty(firstString(user, "nickname", "nickName"), firstString(m, "nickname")),
			Likes:    firstNonEmpty(firstString(interact, "likedCount"), firstString(m, "likedCount", "likes")),
			Comments: firstNonEmpty(firstString(interact, "commentCount"), firstString(m, "commentsCount", "comments")),
			Tags:     tagNames(m["tagList"]),
		})
	}
	return notes, nil
}

// unwrapList accepts a plain array or a reactive wrapper holding one.
func unwrapList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, key := range []string{"_value", "value", "_rawValue"} {
			if list, ok := t[key].([]any); ok {
				return list
			}
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func tagNames(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var tags []string
	for _, t := range list {
		switch tag := t.(type) {
		case string:
			tags = append(tags, tag)
		case map[string]any:
			if name := firstString(tag, "name"); name != "" {
				tags = append(tags, name)
			}
		}
	}
	return tags
}

const hideWebdriverJS = `
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
`

// extractCardsJS is formatted with the maximum number of cards to read.
const extractCardsJS = `
	(function(max) {
		const selectors = [
			'section.note-item',
			'[class*="note-item"]',
			'[class*="noteItem"]',
			'a[href*="/explore/"]',
			'[class*="feeds"] [class*="note"]',
			'.search-result-item'
		];
		let cards = [];
		for (const sel of selectors) {
			cards = Array.from(document.querySelectorAll(sel));
			if (cards.length > 0) break;
		}
		const text = (el, sels, minLen) => {
			let found = '';
			for (const sel of sels) {
				const node = el.querySelector(sel);
				const t = node && node.innerText ? node.innerText.trim() : '';
				if (t) {
					found = t;
					if (t.length > minLen) break;
				}
			}
			return found;
		};
		return cards.slice(0, max).map(card => {
			let link = card.getAttribute('href') || '';
			if (!link) {
				const a = card.querySelector('a[href*="/explore/"]') || card.querySelector('a');
				link = a ? a.getAttribute('href') || '' : '';
			}
			return {
				id: '',
				title: text(card, ['[class*="title"]', 'span', 'p', '[class*="desc"]'], 5),
				content: '',
				author: text(card, ['[class*="author"]', '[class*="name"]', '[class*="nickname"]'], 0),
				likes: text(card, ['[class*="like"]', '[class*="count"]'], 0),
				comments: '',
				link: link,
				tags: []
			};
		});
	})(%d)
`

const initialStateJS = `
	(function() {
		try {
			return JSON.stringify(window.__INITIAL_STATE__ || null);
		} catch (e) {
			return '';
		}
	})()
`
