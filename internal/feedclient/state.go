// Package feedclient keeps the client-side state of an infinitely scrolling
// feed: the accumulated items, the paging cursor and the loading guard.
package feedclient

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"reddot-watch/newsfeed/internal/models"
)

// DefaultLimit is the page size requested when none is configured.
const DefaultLimit = 10

// State is the phase of the feed client.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Page is one response of the feed endpoint.
type Page struct {
	Items   []models.FeedItem
	Page    int
	HasMore bool
}

// Fetcher requests one page of the feed.
type Fetcher interface {
	FetchPage(ctx context.Context, page, limit int) (Page, error)
}

// Snapshot is a consistent copy of the client state.
type Snapshot struct {
	Items       []models.FeedItem
	CurrentPage int
	IsLoading   bool
	HasMore     bool
	Err         error
	State       State
}

// ShowErrorView reports whether the error should replace the content. With
// items already on screen the error is shown alongside them instead.
func (s Snapshot) ShowErrorView() bool {
	return s.Err != nil && len(s.Items) == 0
}

// Options configures a Client.
type Options struct {
	Limit int
	// OnChange, if set, is called after every state transition, outside the lock.
	OnChange func(Snapshot)
}

// Client is the feed state machine. It is safe for concurrent use; at most
// one request is in flight at a time.
type Client struct {
	fetcher  Fetcher
	limit    int
	onChange func(Snapshot)

	mu          sync.Mutex
	items       []models.FeedItem
	currentPage int
	loadedPage  int
	loading     bool
	hasMore     bool
	err         error
	state       State
	generation  uint64
	cancel      context.CancelFunc
}

// New creates a client in the Idle state.
func New(fetcher Fetcher, opts Options) *Client {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return &Client{
		fetcher:  fetcher,
		limit:    opts.Limit,
		onChange: opts.OnChange,
		hasMore:  true,
		state:    StateIdle,
	}
}

// Snapshot returns a copy of the current state.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LoadMore requests the page after the last loaded one (page 1 when nothing
// is loaded). It is a no-op while a request is in flight or when the last
// page said there is nothing more. It blocks until the response is applied.
func (c *Client) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	return c.load(ctx, c.loadedPage+1)
}

// Refresh drops the accumulated items and loads page 1. A request still in
// flight is canceled and its response discarded.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.items = nil
	c.currentPage = 1
	c.loadedPage = 0
	c.hasMore = true
	c.err = nil
	return c.load(ctx, 1)
}

// load must be called with c.mu held; it releases the lock.
func (c *Client) load(ctx context.Context, page int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gen := c.generation
	c.cancel = cancel
	c.loading = true
	c.state = StateLoading
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	res, err := c.fetcher.FetchPage(ctx, page, c.limit)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debug().Int("page", page).Msg("Discarding feed response superseded by refresh")
		return ErrSuperseded
	}

	c.loading = false
	c.cancel = nil
	if err != nil {
		netErr := asNetworkError(page, err)
		c.err = netErr
		c.state = StateFailed
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return netErr
	}

	if res.Page <= 0 {
		res.Page = page
	}
	if page == 1 {
		c.items = append([]models.FeedItem(nil), res.Items...)
	} else {
		c.items = append(c.items, res.Items...)
	}
	c.currentPage = res.Page
	c.loadedPage = res.Page
	c.hasMore = res.HasMore
	c.err = nil
	c.state = StateLoaded
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

func (c *Client) snapshotLocked() Snapshot {
	return Snapshot{
		Items:       append([]models.FeedItem{}, c.items...),
		CurrentPage: c.currentPage,
		IsLoading:   c.loading,
		HasMore:     c.hasMore,
		Err:         c.err,
		State:       c.state,
	}
}

func (c *Client) notify(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
