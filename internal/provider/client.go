// Package provider fetches top headlines from NewsAPI and normalizes them into feed items.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/shuffle"
)

const (
	DefaultBaseURL = "https://newsapi.org"
	DefaultCountry = "us"
	DemoAPIKey     = "demo"
	DefaultSource  = "NewsAPI"

	defaultTimeout = 5 * time.Second
	maxPageSize    = 100
	removedTitle   = "[Removed]"
	userAgent      = "newsfeed/1.0"
)

// Config holds provider client settings.
type Config struct {
	BaseURL        string
	APIKey         string
	Country        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Optional
	HTTPClient *http.Client
	Rand       shuffle.Rand
	Now        func() time.Time
}

// Client talks to the NewsAPI top-headlines endpoint.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	country        string
	timeout        time.Duration
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	rand           shuffle.Rand
	now            func() time.Time
}

// NewClient creates a provider client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DemoAPIKey
	}
	if cfg.Country == "" {
		cfg.Country = DefaultCountry
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Rand == nil {
		cfg.Rand = shuffle.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		httpClient:     cfg.HTTPClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		country:        cfg.Country,
		timeout:        cfg.Timeout,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		rand:           cfg.Rand,
		now:            cfg.Now,
	}
}

// FetchPage returns the provider's items for the page, or an empty slice if
// anything goes wrong. Failures are logged, never returned.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) []models.FeedItem {
	items, err := c.Fetch(ctx, page, pageSize)
	if err != nil {
		loggerFrom(ctx).Warn().
			Err(err).
			Int("page", page).
			Int("page_size", pageSize).
			Msg("Provider fetch failed, serving fallback content only")
		return []models.FeedItem{}
	}
	return items
}

// Fetch performs the upstream call. The whole call, retries included, is
// bounded by the configured timeout. Errors are *ProviderError.
func (c *Client) Fetch(ctx context.Context, page, pageSize int) ([]models.FeedItem, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.endpoint(page, pageSize)

	var resp *apiResponse
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err = c.doRequest(ctx, endpoint)
		if err == nil {
			break
		}
		if attempt == c.maxAttempts || !retryable(err) {
			return nil, err
		}

		backoff := c.calculateBackoff(attempt)
		loggerFrom(ctx).Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Provider request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, &ProviderError{Op: "request", Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}

	items := c.transform(resp.Articles)
	loggerFrom(ctx).Debug().
		Int("page", page).
		Int("articles", len(resp.Articles)).
		Int("items", len(items)).
		Int("total_results", resp.TotalResults).
		Msg("Fetched provider page")

	return items, nil
}

func (c *Client) endpoint(page, pageSize int) string {
	q := url.Values{
		"country":  {c.country},
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	return fmt.Sprintf("%s/v2/top-headlines?%s", c.baseURL, q.Encode())
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Op: "request", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "request", Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ProviderError{Op: "request", StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(body, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := &ProviderError{Op: "status", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
		if decodeErr == nil && apiResp.Code != "" {
			pe.Code = apiResp.Code
			pe.Err = errors.New(apiResp.Message)
		}
		return nil, pe
	}
	if decodeErr != nil {
		return nil, &ProviderError{Op: "decode", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if apiResp.Status != "ok" {
		return nil, &ProviderError{Op: "api", StatusCode: resp.StatusCode, Code: apiResp.Code, Err: fmt.Errorf("status %q: %s", apiResp.Status, apiResp.Message)}
	}

	return &apiResp, nil
}

// retryable reports whether another attempt may help: transport failures and 5xx/429.
func retryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	if errors.Is(pe.Err, context.Canceled) || errors.Is(pe.Err, context.DeadlineExceeded) {
		return false
	}
	switch pe.Op {
	case "request":
		return true
	case "status":
		return pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode >= 500
	}
	return false
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func (c *Client) transform(articles []article) []models.FeedItem {
	fetchedAt := c.now().UTC()
	items := make([]models.FeedItem, 0, len(articles))

	for _, a := range articles {
		title := strings.TrimSpace(a.Title)
		if title == "" || title == removedTitle {
			continue
		}

		publishedAt := fetchedAt
		if a.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				publishedAt = t.UTC()
			}
		}

		item := models.FeedItem{
			ID:          "news-" + uuid.NewString(),
			Title:       title,
			Description: deref(a.Description),
			ImageURL:    strings.TrimSpace(deref(a.URLToImage)),
			Source:      strings.TrimSpace(a.Source.Name),
			URL:         strings.TrimSpace(a.URL),
			PublishedAt: publishedAt,
			Type:        models.TypeNews,
		}
		if item.ImageURL == "" {
			item.ImageURL = c.substituteImage()
		}
		if item.URL == "" {
			item.URL = models.PlaceholderURL
		}
		if item.Source == "" {
			item.Source = DefaultSource
		}

		items = append(items, item)
	}

	return items
}

func (c *Client) substituteImage() string {
	return models.SubstituteImageURL(c.rand.IntN(1000))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// loggerFrom prefers the request-scoped logger attached by hlog.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}
