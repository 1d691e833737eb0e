package engine

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elonfeng/redinsight/pkg/source"
)

func TestNormalizeCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2.3w", 23000},
		{"8.5k", 8500},
		{"8.5K", 8500},
		{"1.5W", 15000},
		{"1.2万", 12000},
		{"3千", 3000},
		{" 1234 ", 1234},
		{"1,234", 1234},
		{"10+", 10},
		{"", 0},
		{"   ", 0},
		{"赞", 0},
		{"abc", 0},
		{"w", 0},
		{"1.2.3w", 0},
		{"-5w", 0},
		{"nanw", 0},
		{"infk", 0},
		{"99999999999999999999999", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCount(tt.in))
		})
	}
}

func TestNormalizeCountIdempotent(t *testing.T) {
	for _, in := range []string{"2.3w", "8.5k", "1234", "", "1.2万", "7千", "x", "0.5w"} {
		n := NormalizeCount(in)
		assert.GreaterOrEqual(t, n, 0)
		assert.Equal(t, n, NormalizeCount(strconv.Itoa(n)), in)
	}
}

func TestEngagement(t *testing.T) {
	p := source.Post{Likes: "1.5w", Comments: "876"}
	assert.Equal(t, 15000, LikeCount(p))
	assert.Equal(t, 876, CommentCount(p))
	assert.Equal(t, 15876, Engagement(p))
}

func TestDedupe(t *testing.T) {
	long := "这是一个非常非常长的标题用来测试去重逻辑是否只看前三十个字符的情况"
	posts := []source.Post{
		{ID: "1", Title: long + "甲"},
		{ID: "2", Title: "另一篇"},
		{ID: "3", Title: long + "乙"},
		{ID: "4", Title: "另一篇"},
		{ID: "5", Title: "第三篇"},
	}

	got := Dedupe(posts)

	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"1", "2", "5"}, ids)
	assert.Len(t, posts, 5, "input must not be modified")
}
