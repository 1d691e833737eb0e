package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/elonfeng/redinsight/pkg/source"
)

var (
	tenThousandSuffix = strings.NewReplacer("w", "", "万", "")
	thousandSuffix    = strings.NewReplacer("k", "", "千", "")
)

// NormalizeCount parses a loosely formatted count such as "2.3w", "8.5K",
// "1.2万" or "1,234" into a non-negative integer. Anything it cannot make
// sense of is 0.
func NormalizeCount(raw string) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	switch {
	case strings.ContainsAny(s, "w万"):
		return scaleCount(tenThousandSuffix.Replace(s), 10000)
	case strings.ContainsAny(s, "k千"):
		return scaleCount(thousandSuffix.Replace(s), 1000)
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return int(n)
}

func scaleCount(s string, multiplier float64) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	scaled := v * multiplier
	if scaled >= math.MaxInt64 {
		return 0
	}
	return int(scaled)
}

// LikeCount returns the normalized like count of p.
func LikeCount(p source.Post) int { return NormalizeCount(p.Likes) }

// CommentCount returns the normalized comment count of p.
func CommentCount(p source.Post) int { return NormalizeCount(p.Comments) }

// Engagement is the normalized likes plus comments of p.
func Engagement(p source.Post) int {
	return LikeCount(p) + CommentCount(p)
}
