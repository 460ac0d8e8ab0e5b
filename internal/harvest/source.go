package harvest

import (
	"context"
	"time"

	"github.com/reddot-watch/feedfetcher"
)

// Entry is one RSS/Atom item as seen by the harvester.
type Entry struct {
	URL         string
	Title       string
	Content     string
	PublishedAt time.Time
}

// Source fetches the entries of one feed.
type Source interface {
	Fetch(ctx context.Context, feedURL string) ([]Entry, error)
}

// FeedSource is a Source backed by feedfetcher.
type FeedSource struct {
	fetcher *feedfetcher.FeedFetcher
}

// NewFeedSource creates a feedfetcher-backed source.
func NewFeedSource(maxAge time.Duration) *FeedSource {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &FeedSource{
		fetcher: feedfetcher.NewFeedFetcher(feedfetcher.Config{
			UserAgent:            "newsfeed-harvester/1.0",
			RequestTimeout:       15 * time.Second,
			MaxItems:             50,
			MaxHeadingLength:     200,
			MaxAge:               maxAge,
			FutureDriftTolerance: 12 * time.Hour,
		}),
	}
}

func (s *FeedSource) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	items, err := s.fetcher.FetchAndProcess(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{
			URL:         item.URL,
			Title:       item.Headline,
			Content:     item.Content,
			PublishedAt: item.PublishedAt,
		})
	}
	return entries, nil
}
