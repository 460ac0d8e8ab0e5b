// Package harvest pulls items from curated RSS feeds into the fallback catalog.
// It runs offline; the feed server only reads the catalog at startup.
package harvest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/server/storage"
	"reddot-watch/newsfeed/internal/shuffle"
)

const (
	maxDescriptionRunes = 280
	feedTimeout         = 2 * time.Minute
)

// Config controls a harvest run.
type Config struct {
	WorkerCount int
	ItemType    models.ItemType
	Rand        shuffle.Rand
}

// Harvester fetches feeds in parallel and writes their entries to the catalog
// from a single writer goroutine.
type Harvester struct {
	repo        storage.CatalogRepository
	source      Source
	WorkerCount int
	itemType    models.ItemType
	rand        shuffle.Rand

	feedQueue chan string
	itemQueue chan *models.CatalogItem

	workerWg   sync.WaitGroup
	inserted   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// NewHarvester creates a harvester. A Harvester runs once.
func NewHarvester(repo storage.CatalogRepository, source Source, cfg Config) (*Harvester, error) {
	if repo == nil {
		return nil, errors.New("catalog repository cannot be nil")
	}
	if source == nil {
		return nil, errors.New("feed source cannot be nil")
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if !cfg.ItemType.Valid() {
		cfg.ItemType = models.TypeOther
	}
	if cfg.Rand == nil {
		cfg.Rand = shuffle.Default()
	}

	return &Harvester{
		repo:        repo,
		source:      source,
		WorkerCount: cfg.WorkerCount,
		itemType:    cfg.ItemType,
		rand:        cfg.Rand,
		feedQueue:   make(chan string, cfg.WorkerCount*2),
		itemQueue:   make(chan *models.CatalogItem, cfg.WorkerCount*5),
	}, nil
}

// Stats returns inserted, duplicate and failed-feed counts.
func (h *Harvester) Stats() (inserted, duplicates, failed int64) {
	return h.inserted.Load(), h.duplicates.Load(), h.failed.Load()
}

// Harvest fetches every feed and stores new entries. A failing feed is logged
// and counted. A failing catalog write cancels the remaining fetches and its
// error is returned.
func (h *Harvester) Harvest(ctx context.Context, feedURLs []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerErr := make(chan error, 1)
	go func() {
		writerErr <- h.writer(ctx, cancel)
	}()

	for i := 0; i < h.WorkerCount; i++ {
		h.workerWg.Add(1)
		go h.feedWorker(ctx)
	}

	go func() {
		defer close(h.feedQueue)
		for _, u := range feedURLs {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			select {
			case h.feedQueue <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	h.workerWg.Wait()
	close(h.itemQueue)

	if err := <-writerErr; err != nil {
		return err
	}
	return ctx.Err()
}

func (h *Harvester) feedWorker(ctx context.Context) {
	defer h.workerWg.Done()

	for feedURL := range h.feedQueue {
		feedCtx, cancelFeed := context.WithTimeout(ctx, feedTimeout)

		log.Info().Str("url", feedURL).Msg("Harvesting feed")
		entries, err := h.source.Fetch(feedCtx, feedURL)
		cancelFeed()
		if err != nil {
			h.failed.Add(1)
			log.Error().Err(err).Str("url", feedURL).Msg("Error fetching feed")
			continue
		}

		sourceName := sourceLabel(feedURL)
		for _, e := range entries {
			item := h.toCatalogItem(e, sourceName)
			if item == nil {
				continue
			}
			select {
			case h.itemQueue <- item:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Harvester) writer(ctx context.Context, abort context.CancelFunc) error {
	var firstErr error
	for item := range h.itemQueue {
		if firstErr != nil {
			continue // drain
		}

		inserted, err := h.repo.InsertItem(ctx, item)
		if err != nil {
			firstErr = fmt.Errorf("catalog writer: %w", err)
			log.Error().Err(err).Str("item_key", item.ItemKey).Msg("Failed to store harvested item, stopping harvest")
			abort()
			continue
		}
		if !inserted {
			h.duplicates.Add(1)
			continue
		}
		h.inserted.Add(1)
		log.Debug().Str("item_key", item.ItemKey).Str("url", item.URL).Msg("Stored harvested item")
	}
	return firstErr
}

func (h *Harvester) toCatalogItem(e Entry, sourceName string) *models.CatalogItem {
	title := strings.TrimSpace(e.Title)
	link := strings.TrimSpace(e.URL)
	if title == "" || link == "" {
		return nil
	}

	item := models.NewCatalogItem()
	item.ItemKey = "harvest-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
	item.Title = title
	if desc := truncate(strings.TrimSpace(e.Content), maxDescriptionRunes); desc != "" {
		item.Description = sql.NullString{String: desc, Valid: true}
	}
	item.ImageURL = models.SubstituteImageURL(h.rand.IntN(1000))
	item.Source = sourceName
	item.URL = link
	item.Type = string(h.itemType)
	if !e.PublishedAt.IsZero() {
		item.PublishedAt = e.PublishedAt.UTC()
	}
	return item
}

func sourceLabel(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
