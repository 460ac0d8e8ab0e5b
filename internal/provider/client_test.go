package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/shuffle"
)

const okBody = `{
  "status": "ok",
  "totalResults": 3,
  "articles": [
    {
      "source": {"id": "wire", "name": "The Wire"},
      "title": "Markets rally",
      "description": "Stocks climbed.",
      "url": "https://example.com/markets",
      "urlToImage": "https://example.com/markets.jpg",
      "publishedAt": "2025-03-28T15:00:00Z"
    },
    {
      "source": {"id": null, "name": ""},
      "title": "No image here",
      "description": null,
      "url": "",
      "urlToImage": null,
      "publishedAt": "yesterday"
    },
    {
      "source": {"id": null, "name": "Gone"},
      "title": "[Removed]",
      "url": "https://removed.com"
    }
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	if cfg.Rand == nil {
		cfg.Rand = shuffle.Seeded(1)
	}
	return NewClient(cfg)
}

func TestFetchNormalizesArticles(t *testing.T) {
	fixed := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	var gotQuery, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-Api-Key")
		assert.Equal(t, "/v2/top-headlines", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}, Config{APIKey: "secret", Now: func() time.Time { return fixed }})

	items, err := c.Fetch(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, items, 2, "removed article is dropped")

	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "pageSize=10")
	assert.Contains(t, gotQuery, "country=us")
	assert.Equal(t, "secret", gotKey)

	first := items[0]
	assert.True(t, strings.HasPrefix(first.ID, "news-"))
	assert.Equal(t, "Markets rally", first.Title)
	assert.Equal(t, "The Wire", first.Source)
	assert.Equal(t, "https://example.com/markets.jpg", first.ImageURL)
	assert.Equal(t, models.TypeNews, first.Type)
	assert.Equal(t, 2025, first.PublishedAt.Year())

	second := items[1]
	assert.True(t, strings.HasPrefix(second.ImageURL, "https://picsum.photos/800/600?random="))
	assert.Equal(t, models.PlaceholderURL, second.URL)
	assert.Equal(t, DefaultSource, second.Source)
	assert.Equal(t, fixed, second.PublishedAt)
	assert.Empty(t, second.Description)

	assert.NotEqual(t, first.ID, second.ID)
	for _, it := range items {
		assert.NoError(t, it.Validate())
	}
}

func TestFetchClampsInput(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
	}, Config{})

	items, err := c.Fetch(context.Background(), 0, 500)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Contains(t, gotQuery, "page=1")
	assert.Contains(t, gotQuery, "pageSize=100")
}

func TestFetchReportsProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		op     string
		code   string
	}{
		{"api error body", http.StatusUnauthorized, `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`, "status", "apiKeyInvalid"},
		{"plain 500", http.StatusInternalServerError, `oops`, "status", ""},
		{"malformed json", http.StatusOK, `{"status":`, "decode", ""},
		{"error status with 200", http.StatusOK, `{"status":"error","code":"rateLimited","message":"slow down"}`, "api", "rateLimited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Config{})

			items, err := c.Fetch(context.Background(), 1, 10)
			assert.Nil(t, items)
			var pe *ProviderError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.op, pe.Op)
			assert.Equal(t, tt.code, pe.Code)
		})
	}
}

func TestFetchPageSwallowsFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, Config{})

	items := c.FetchPage(context.Background(), 1, 10)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFetchPageTimesOut(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, Config{Timeout: 50 * time.Millisecond})
	defer close(release)

	start := time.Now()
	items := c.FetchPage(context.Background(), 1, 10)
	assert.Empty(t, items)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}, Config{MaxAttempts: 3, InitialBackoff: time.Millisecond})

	items, err := c.Fetch(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyMissing","message":"missing"}`))
	}, Config{MaxAttempts: 3, InitialBackoff: time.Millisecond})

	_, err := c.Fetch(context.Background(), 1, 10)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://newsapi.org/"})
	assert.Equal(t, "https://newsapi.org", c.baseURL)
	assert.Equal(t, DemoAPIKey, c.apiKey)
	assert.Equal(t, DefaultCountry, c.country)
	assert.Equal(t, defaultTimeout, c.timeout)
	assert.Equal(t, 1, c.maxAttempts)
}

func TestCalculateBackoff(t *testing.T) {
	c := NewClient(Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond})
	assert.Equal(t, 100*time.Millisecond, c.calculateBackoff(1))
	assert.Equal(t, 200*time.Millisecond, c.calculateBackoff(2))
	assert.Equal(t, 300*time.Millisecond, c.calculateBackoff(3))
}
