package source

import "strings"

// Filter holds keyword lists for matching post text.
type Filter struct {
	keywords []string
	require  []string
	exclude  []string
}

// NewFilter creates a case-insensitive filter. Text must contain one of
// keywords (when any are given) and none of exclude.
func NewFilter(keywords, exclude []string) *Filter {
	return &Filter{keywords: lowerAll(keywords), exclude: lowerAll(exclude)}
}

// With returns a copy of the filter that additionally requires every
// one of terms, on top of the configured keyword match.
func (f *Filter) With(terms ...string) *Filter {
	if f == nil {
		f = &Filter{}
	}
	return &Filter{
		keywords: f.keywords,
		require:  append(append([]string(nil), f.require...), lowerAll(terms)...),
		exclude:  f.exclude,
	}
}

// Matches reports whether text passes the filter.
func (f *Filter) Matches(text string) bool {
	if f == nil {
		return true
	}
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}

	for _, term := range f.require {
		if !strings.Contains(lower, term) {
			return false
		}
	}

	if len(f.keywords) == 0 {
		return true
	}
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
