// Package aggregator blends provider headlines with fallback content into
// shuffled, bounded feed pages.
package aggregator

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/shuffle"
)

// DefaultFallbackCount is how many fallback items join every page's candidates.
const DefaultFallbackCount = 5

// ServiceError is an unexpected internal fault while building a page.
// Provider outages never produce one.
type ServiceError struct {
	Page int
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("build page %d: %v", e.Page, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Config holds optional aggregator settings.
type Config struct {
	FallbackCount int
	Rand          shuffle.Rand
}

// Aggregator builds feed pages. It keeps no per-request state.
type Aggregator struct {
	provider      Provider
	pool          Sampler
	fallbackCount int
	rand          shuffle.Rand
}

// New creates an aggregator. The random source must be safe for concurrent
// use when the aggregator serves concurrent requests; the default is.
func New(provider Provider, pool Sampler, cfg Config) *Aggregator {
	if cfg.FallbackCount <= 0 {
		cfg.FallbackCount = DefaultFallbackCount
	}
	if cfg.Rand == nil {
		cfg.Rand = shuffle.Default()
	}
	return &Aggregator{
		provider:      provider,
		pool:          pool,
		fallbackCount: cfg.FallbackCount,
		rand:          cfg.Rand,
	}
}

// BuildPage returns at most pageSize items: the provider's page plus a fallback
// sample, shuffled, then truncated. An empty result is valid. The only error is
// *ServiceError.
func (a *Aggregator) BuildPage(ctx context.Context, page, pageSize int) (items []models.FeedItem, err error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	logger := loggerFrom(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Int("page", page).
				Msg("Recovered from panic while building page")
			items = nil
			err = &ServiceError{Page: page, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	providerItems := a.provider.FetchPage(ctx, page, pageSize)
	fallbackItems := a.pool.Sample(a.fallbackCount)

	candidates := make([]models.FeedItem, 0, len(providerItems)+len(fallbackItems))
	seen := make(map[string]struct{}, cap(candidates))
	dropped := 0
	for _, group := range [][]models.FeedItem{providerItems, fallbackItems} {
		for _, it := range group {
			if it.Validate() != nil {
				dropped++
				continue
			}
			if _, dup := seen[it.ID]; dup {
				dropped++
				continue
			}
			seen[it.ID] = struct{}{}
			candidates = append(candidates, it)
		}
	}

	shuffle.Slice(a.rand, candidates)

	if len(candidates) > pageSize {
		candidates = candidates[:pageSize]
	}

	logger.Debug().
		Int("page", page).
		Int("page_size", pageSize).
		Int("provider_items", len(providerItems)).
		Int("fallback_items", len(fallbackItems)).
		Int("dropped", dropped).
		Int("returned", len(candidates)).
		Msg("Built feed page")

	return candidates, nil
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}
