package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Chain tries searchers in order and returns the first non-empty result.
type Chain struct {
	searchers []Searcher
	logger    zerolog.Logger
}

// NewChain creates a fallback chain over searchers.
func NewChain(logger zerolog.Logger, searchers ...Searcher) *Chain {
	return &Chain{
		searchers: searchers,
		logger:    logger.With().Str("component", "search_chain").Logger(),
	}
}

func (c *Chain) Name() Platform {
	if len(c.searchers) == 0 {
		return ""
	}
	return c.searchers[0].Name()
}

// Searchers returns the platforms in the chain, in order.
func (c *Chain) Searchers() []Platform {
	names := make([]Platform, len(c.searchers))
	for i, s := range c.searchers {
		names[i] = s.Name()
	}
	return names
}

// Search returns the posts of the first searcher that finds any. Failures
// are only reported when no searcher produced posts; ErrNoResults is
// returned when all of them succeeded with nothing.
func (c *Chain) Search(ctx context.Context, keyword string, limit int) ([]Post, error) {
	var errs []error
	for _, s := range c.searchers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		posts, err := s.Search(ctx, keyword, limit)
		if err != nil {
			c.logger.Warn().Err(err).Str("searcher", string(s.Name())).Str("keyword", keyword).Msg("search failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(posts) == 0 {
			c.logger.Debug().Str("searcher", string(s.Name())).Str("keyword", keyword).Msg("no posts, trying next")
			continue
		}

		c.logger.Debug().Str("searcher", string(s.Name())).Str("keyword", keyword).Int("posts", len(posts)).Msg("search served")
		if limit > 0 && len(posts) > limit {
			posts = posts[:limit]
		}
		return posts, nil
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, ErrNoResults
}
