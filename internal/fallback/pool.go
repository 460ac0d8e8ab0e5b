// Package fallback holds the curated catalog that fills feed pages when the
// provider is down and adds variety when it is not.
package fallback

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/shuffle"
)

// Pool is a read-only set of fallback items. It is safe for concurrent use
// as long as its random source is.
type Pool struct {
	items []models.FeedItem
	rand  shuffle.Rand
}

// NewPool copies items into a new pool. Invalid items and repeated ids are dropped.
func NewPool(items []models.FeedItem, r shuffle.Rand) *Pool {
	if r == nil {
		r = shuffle.Default()
	}

	seen := make(map[string]struct{}, len(items))
	kept := make([]models.FeedItem, 0, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			log.Warn().Err(err).Str("item_id", it.ID).Msg("Skipping invalid fallback item")
			continue
		}
		if _, dup := seen[it.ID]; dup {
			log.Warn().Str("item_id", it.ID).Msg("Skipping duplicate fallback item")
			continue
		}
		seen[it.ID] = struct{}{}
		kept = append(kept, it)
	}

	return &Pool{items: kept, rand: r}
}

// Len returns the number of items in the pool.
func (p *Pool) Len() int {
	return len(p.items)
}

// Items returns a copy of the whole catalog.
func (p *Pool) Items() []models.FeedItem {
	out := make([]models.FeedItem, len(p.items))
	copy(out, p.items)
	return out
}

// Sample returns up to count items. When the pool holds no more than count
// items, all of them are returned; otherwise a uniform random subset is chosen.
// Nothing is consumed, so the same item may be served again.
func (p *Pool) Sample(count int) []models.FeedItem {
	if count <= 0 || len(p.items) == 0 {
		return []models.FeedItem{}
	}
	if count >= len(p.items) {
		return p.Items()
	}

	// partial Fisher–Yates over indices
	idx := make([]int, len(p.items))
	for i := range idx {
		idx[i] = i
	}
	out := make([]models.FeedItem, 0, count)
	for i := 0; i < count; i++ {
		j := i + p.rand.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, p.items[idx[i]])
	}
	return out
}

type catalogFile struct {
	Items []models.FeedItem `yaml:"items"`
}

// LoadFile reads a YAML catalog. Missing fields get defaults: type "other",
// the placeholder url, a stock image and the load time as publish date.
func LoadFile(path string) ([]models.FeedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	now := time.Now().UTC()
	r := shuffle.Default()
	for i := range cf.Items {
		it := &cf.Items[i]
		it.Type = models.ParseItemType(string(it.Type))
		if it.URL == "" {
			it.URL = models.PlaceholderURL
		}
		if it.ImageURL == "" {
			it.ImageURL = models.SubstituteImageURL(r.IntN(1000))
		}
		if it.PublishedAt.IsZero() {
			it.PublishedAt = now
		}
	}

	log.Debug().Str("path", path).Int("items", len(cf.Items)).Msg("Loaded catalog file")
	return cf.Items, nil
}
