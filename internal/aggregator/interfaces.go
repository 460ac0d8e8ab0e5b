package aggregator

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"reddot-watch/newsfeed/internal/models"
)

// Provider returns one page of upstream items. Failures are absorbed by the
// implementation and show up as an empty slice.
type Provider interface {
	FetchPage(ctx context.Context, page, pageSize int) []models.FeedItem
}

// Sampler hands out fallback items.
type Sampler interface {
	Sample(count int) []models.FeedItem
}
