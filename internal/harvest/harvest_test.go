package harvest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddot-watch/newsfeed/internal/models"
)

type fakeSource struct {
	feeds map[string][]Entry
}

func (f *fakeSource) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	entries, ok := f.feeds[feedURL]
	if !ok {
		return nil, errors.New("feed unavailable")
	}
	return entries, nil
}

type memRepo struct {
	mu      sync.Mutex
	items   []models.CatalogItem
	keys    map[string]bool
	failing bool
}

func (m *memRepo) ListItems(ctx context.Context, limit int) ([]models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CatalogItem(nil), m.items...), nil
}

func (m *memRepo) InsertItem(ctx context.Context, item *models.CatalogItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return false, errors.New("disk full")
	}
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[item.ItemKey] {
		return false, nil
	}
	m.keys[item.ItemKey] = true
	m.items = append(m.items, *item)
	return true, nil
}

func (m *memRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

func TestHarvestStoresEntries(t *testing.T) {
	published := time.Date(2025, 3, 28, 15, 0, 0, 0, time.UTC)
	src := &fakeSource{feeds: map[string][]Entry{
		"https://www.memes.example/rss": {
			{URL: "https://memes.example/1", Title: "Meme one", Content: "funny", PublishedAt: published},
			{URL: "https://memes.example/2", Title: "Meme two", Content: strings.Repeat("x", 400)},
			{URL: "", Title: "no link"},
			{URL: "https://memes.example/3", Title: "   "},
		},
		"https://cats.example/feed": {
			{URL: "https://memes.example/1", Title: "Meme one again"},
		},
	}}
	repo := &memRepo{}

	h, err := NewHarvester(repo, src, Config{WorkerCount: 1, ItemType: models.TypeMeme})
	require.NoError(t, err)

	err = h.Harvest(context.Background(), []string{
		"https://www.memes.example/rss",
		"https://cats.example/feed",
		"https://down.example/feed",
		"  ",
	})
	require.NoError(t, err)

	inserted, duplicates, failed := h.Stats()
	assert.Equal(t, int64(2), inserted)
	assert.Equal(t, int64(1), duplicates, "same link yields the same key")
	assert.Equal(t, int64(1), failed)

	items, _ := repo.ListItems(context.Background(), 0)
	require.Len(t, items, 2)
	for _, row := range items {
		it := row.FeedItem()
		assert.NoError(t, it.Validate())
		assert.Equal(t, models.TypeMeme, it.Type)
		assert.True(t, strings.HasPrefix(it.ID, "harvest-"))
		assert.LessOrEqual(t, len([]rune(it.Description)), maxDescriptionRunes)
		if it.URL == "https://memes.example/1" {
			assert.True(t, it.PublishedAt.Equal(published))
		}
	}
}

func TestHarvestWriterFailure(t *testing.T) {
	src := &fakeSource{feeds: map[string][]Entry{
		"https://a.example/rss": {{URL: "https://a.example/1", Title: "A"}, {URL: "https://a.example/2", Title: "B"}},
	}}
	h, err := NewHarvester(&memRepo{failing: true}, src, Config{WorkerCount: 1})
	require.NoError(t, err)

	err = h.Harvest(context.Background(), []string{"https://a.example/rss"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog writer")
}

// stallingSource serves one feed and blocks on every other until its context ends.
type stallingSource struct {
	entries []Entry
	first   string
}

func (s *stallingSource) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	if feedURL == s.first {
		return s.entries, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHarvestWriterFailureStopsFetching(t *testing.T) {
	src := &stallingSource{
		first:   "https://a.example/rss",
		entries: []Entry{{URL: "https://a.example/1", Title: "A"}},
	}
	h, err := NewHarvester(&memRepo{failing: true}, src, Config{WorkerCount: 2})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- h.Harvest(context.Background(), []string{
			"https://a.example/rss",
			"https://slow.example/1",
			"https://slow.example/2",
			"https://slow.example/3",
		})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog writer")
	case <-time.After(5 * time.Second):
		t.Fatal("harvest kept fetching after the catalog write failed")
	}
}

func TestNewHarvesterValidation(t *testing.T) {
	_, err := NewHarvester(nil, &fakeSource{}, Config{})
	assert.Error(t, err)
	_, err = NewHarvester(&memRepo{}, nil, Config{})
	assert.Error(t, err)

	h, err := NewHarvester(&memRepo{}, &fakeSource{}, Config{ItemType: "podcast"})
	require.NoError(t, err)
	assert.Equal(t, models.TypeOther, h.itemType)
	assert.Positive(t, h.WorkerCount)
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "memes.example", sourceLabel("https://www.memes.example/rss"))
	assert.Equal(t, "not a url", sourceLabel("not a url"))
}
