package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/server/pagination"
)

const serviceErrorMessage = "Failed to fetch feed data"

// PageBuilder produces the items of one feed page.
type PageBuilder interface {
	BuildPage(ctx context.Context, page, pageSize int) ([]models.FeedItem, error)
}

// Response is the success body of the feed endpoint.
type Response struct {
	Success bool              `json:"success"`
	Data    []models.FeedItem `json:"data"`
	Page    int               `json:"page"`
	HasMore bool              `json:"hasMore"`
}

// ErrorResponse is the failure body of the feed endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FeedHandler serves paginated feed pages.
type FeedHandler struct {
	builder      PageBuilder
	defaultLimit int
}

// NewFeedHandler creates a new handler instance.
func NewFeedHandler(builder PageBuilder, defaultLimit int) *FeedHandler {
	return &FeedHandler{
		builder:      builder,
		defaultLimit: defaultLimit,
	}
}

// GetFeed handles GET /api/feed?page=&limit=. Method matching is left to the
// mux pattern it is registered under.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Processing feed request")

	req := pagination.ParseRequest(r.URL.Query(), h.defaultLimit)

	items, err := h.builder.BuildPage(r.Context(), req.Page, req.Limit)
	if err != nil {
		log.Error().Err(err).Int("page", req.Page).Int("limit", req.Limit).Msg("Error building feed page")
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Success: false, Error: serviceErrorMessage})
		return
	}
	if items == nil {
		items = []models.FeedItem{}
	}

	writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Data:    items,
		Page:    req.Page,
		HasMore: pagination.HasMore(len(items), req.Limit),
	})
}

// CatalogHandler serves the fallback catalog read-only.
func CatalogHandler(items []models.FeedItem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, struct {
			Success bool              `json:"success"`
			Data    []models.FeedItem `json:"data"`
		}{Success: true, Data: items})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	log := hlog.FromRequest(r)

	jsonBytes, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, writeErr := w.Write(jsonBytes); writeErr != nil {
		log.Error().Err(writeErr).Msg("Error writing JSON response body to client")
		return
	}
	log.Debug().Int("status", status).Int("bytes_written", len(jsonBytes)).Msg("Response completed")
}
