package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddot-watch/newsfeed/internal/aggregator"
	"reddot-watch/newsfeed/internal/fallback"
	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/server/api"
)

type emptyProvider struct{}

func (emptyProvider) FetchPage(ctx context.Context, page, pageSize int) []models.FeedItem {
	return nil
}

func newTestServer(t *testing.T, staticDir string) *httptest.Server {
	t.Helper()
	catalog := fallback.Builtin(time.Now())
	agg := aggregator.New(emptyProvider{}, fallback.NewPool(catalog, nil), aggregator.Config{})

	h := NewHandler(Routes{
		Feed:      api.NewFeedHandler(agg, 20),
		Catalog:   catalog,
		StaticDir: staticDir,
	}, zerolog.Nop())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func getBody(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestFeedRoutes(t *testing.T) {
	srv := newTestServer(t, "")

	for _, path := range []string{"/api/feed?page=1&limit=3", "/api/news?page=1&limit=3"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		resp, body := getBody(t, req)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		var parsed api.Response
		require.NoError(t, json.Unmarshal([]byte(body), &parsed))
		assert.True(t, parsed.Success)
		assert.Len(t, parsed.Data, 3)
		assert.True(t, parsed.HasMore)
		assert.NotEmpty(t, resp.Header.Get("Request-Id"))
	}
}

func TestFeedRejectsOtherMethods(t *testing.T) {
	srv := newTestServer(t, "")
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/feed", nil)
	resp, _ := getBody(t, req)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, "")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/feed", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, _ := getBody(t, req)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	preflight, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/feed", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, _ = getBody(t, preflight)
	assert.Less(t, resp.StatusCode, 300)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestHealthAndCatalog(t *testing.T) {
	srv := newTestServer(t, "")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	resp, body := getBody(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/catalog", nil)
	resp, body = getBody(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "entertainment-1")
}

func TestStaticClientFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	srv := newTestServer(t, dir)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/app.js", nil)
	_, body := getBody(t, req)
	assert.Equal(t, "console.log(1)", body)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/some/client/route", nil)
	resp, body := getBody(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html>app</html>", body)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/unknown", nil)
	resp, _ = getBody(t, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNoStaticDirMeansNotFound(t *testing.T) {
	srv := newTestServer(t, "")
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	resp, _ := getBody(t, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunServerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunServer(ctx, http.NotFoundHandler(), "127.0.0.1:0", zerolog.Nop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunServerReportsListenError(t *testing.T) {
	err := RunServer(context.Background(), http.NotFoundHandler(), "256.0.0.1:99999", zerolog.Nop())
	assert.Error(t, err)
}
