// Package engine scores and summarizes collections of social posts.
//
// Everything here is pure computation over in-memory posts: no I/O, no
// logging and no shared mutable state, so an Engine may be used from any
// number of goroutines at once.
package engine

import (
	"math"
	"time"
)

// Options tunes the list sizes produced by an Engine.
type Options struct {
	HotWordsTopN int
	AuthorsTopN  int
	TagsTopN     int
	// InsightRules replaces DefaultInsightRules when set.
	InsightRules []InsightRule
	// Now stamps generated results. Defaults to time.Now.
	Now func() time.Time
}

// Engine assembles statistics reports, rankings and regional analyses.
type Engine struct {
	hotWordsTopN int
	authorsTopN  int
	tagsTopN     int
	insightRules []InsightRule
	now          func() time.Time
}

// New creates an engine, filling zero options with defaults.
func New(opts Options) *Engine {
	if opts.HotWordsTopN <= 0 {
		opts.HotWordsTopN = 20
	}
	if opts.AuthorsTopN <= 0 {
		opts.AuthorsTopN = 10
	}
	if opts.TagsTopN <= 0 {
		opts.TagsTopN = 10
	}
	if len(opts.InsightRules) == 0 {
		opts.InsightRules = DefaultInsightRules
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		hotWordsTopN: opts.HotWordsTopN,
		authorsTopN:  opts.AuthorsTopN,
		tagsTopN:     opts.TagsTopN,
		insightRules: opts.InsightRules,
		now:          opts.Now,
	}
}

func (e *Engine) timestamp() string {
	return e.now().Format(time.RFC3339)
}

// round rounds x half away from zero to the given number of decimals.
func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

// ratio divides a by b, returning 0 for an empty denominator.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
