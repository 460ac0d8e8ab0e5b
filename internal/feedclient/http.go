package feedclient

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

	"reddot-watch/newsfeed/internal/models"
)

const feedPath = "/api/feed"

type feedResponse struct {
	Success bool              `json:"success"`
	Data    []models.FeedItem `json:"data"`
	Page    int               `json:"page"`
	HasMore bool              `json:"hasMore"`
	Error   string            `json:"error"`
}

// HTTPFetcher fetches pages from a running feed server.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for the server at baseURL. A nil client
// gets a 15 second timeout.
func NewHTTPFetcher(baseURL string, httpClient *http.Client) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchPage implements Fetcher. Every failure is a *ClientNetworkError.
func (f *HTTPFetcher) FetchPage(ctx context.Context, page, limit int) (Page, error) {
	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+feedPath+"?"+q.Encode(), nil)
	if err != nil {
		return Page{}, &ClientNetworkError{Page: page, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Page{}, &ClientNetworkError{Page: page, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Page{}, &ClientNetworkError{Page: page, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	var fr feedResponse
	decodeErr := json.Unmarshal(body, &fr)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && fr.Error != "" {
			msg = fr.Error
		}
		return Page{}, &ClientNetworkError{Page: page, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return Page{}, &ClientNetworkError{Page: page, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !fr.Success {
		return Page{}, &ClientNetworkError{Page: page, StatusCode: resp.StatusCode, Err: fmt.Errorf("server reported failure: %s", fr.Error)}
	}

	return Page{Items: fr.Data, Page: fr.Page, HasMore: fr.HasMore}, nil
}
