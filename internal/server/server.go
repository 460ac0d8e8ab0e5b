package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/server/api"
)

// Routes holds what the HTTP surface serves.
type Routes struct {
	Feed    *api.FeedHandler
	Catalog []models.FeedItem

	// StaticDir, when set, is served at / with unknown paths falling back to index.html.
	StaticDir string
}

// NewHandler builds the mux and wraps it in the CORS and logging middleware.
func NewHandler(routes Routes, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/feed", routes.Feed.GetFeed)
	mux.HandleFunc("GET /api/news", routes.Feed.GetFeed)
	mux.HandleFunc("GET /api/catalog", api.CatalogHandler(routes.Catalog))
	mux.HandleFunc("GET /health", healthCheckHandler)

	if routes.StaticDir != "" {
		mux.Handle("GET /", spaHandler(routes.StaticDir))
		logger.Info().Str("dir", routes.StaticDir).Msg("Serving static client")
	}

	h := cors.AllowAll().Handler(mux)

	// Set up middleware chain for logging and request tracking
	h = hlog.NewHandler(logger)(h)
	h = hlog.MethodHandler("method")(h)
	h = hlog.URLHandler("url")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		idReq, _ := hlog.IDFromRequest(r)

		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("req_id", idReq.String()).
			Msg("HTTP Request")
	})(h)

	return h
}

// RunServer serves handler on listenAddr until ctx is done, then drains
// in-flight requests for up to 30 seconds.
func RunServer(ctx context.Context, handler http.Handler, listenAddr string, logger zerolog.Logger) error {
	logger = logger.With().Str("service", "newsfeed-api").Logger()

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", listenAddr).Msg("API Server starting")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		if closeErr := httpServer.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("HTTP server force close error")
		}
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serverErr; err != nil {
		logger.Error().Err(err).Msg("ListenAndServe error during shutdown")
	}

	logger.Info().Msg("Server exiting.")
	return nil
}

// healthCheckHandler responds to health check requests with a simple 200 OK.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Health check request received")

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("Error writing health check response")
	}
}

// spaHandler serves files from dir. Paths that do not name a file get
// index.html so the client router can handle them.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
