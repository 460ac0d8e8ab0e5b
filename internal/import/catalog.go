package importcatalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/server/storage"
)

var requiredColumns = []string{"id", "title", "image_url"}

// Stats summarizes an import run.
type Stats struct {
	Total      int
	Imported   int
	Duplicates int
	Errors     []string
}

// Importer loads curated fallback items from CSV into the catalog
type Importer struct {
	repo       storage.CatalogRepository
	httpClient *http.Client
}

// NewImporter creates a new catalog importer
func NewImporter(repo storage.CatalogRepository) *Importer {
	return &Importer{
		repo:       repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ImportCatalog imports items from a local CSV file or an http(s) URL.
func (i *Importer) ImportCatalog(ctx context.Context, csvSource string) (*Stats, error) {
	log.Info().Str("csv", csvSource).Msg("Starting catalog import")

	csvData, err := i.getCSVData(ctx, csvSource)
	if err != nil {
		return nil, fmt.Errorf("failed to get CSV data: %w", err)
	}
	defer csvData.Close()

	stats, err := i.parseAndImport(ctx, csvData)
	if err != nil {
		return stats, fmt.Errorf("failed to import catalog: %w", err)
	}

	log.Info().
		Int("total", stats.Total).
		Int("imported", stats.Imported).
		Int("duplicates", stats.Duplicates).
		Int("errors", len(stats.Errors)).
		Msg("Import summary")
	return stats, nil
}

func (i *Importer) getCSVData(ctx context.Context, csvSource string) (io.ReadCloser, error) {
	if strings.HasPrefix(csvSource, "http://") || strings.HasPrefix(csvSource, "https://") {
		return i.downloadCSV(ctx, csvSource)
	}

	f, err := os.Open(csvSource)
	if err != nil {
		return nil, fmt.Errorf("CSV file not found: %w", err)
	}
	log.Info().Str("path", csvSource).Msg("Using local CSV file")
	return f, nil
}

func (i *Importer) downloadCSV(ctx context.Context, url string) (io.ReadCloser, error) {
	log.Debug().Str("url", url).Msg("Downloading CSV file")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file: HTTP status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (i *Importer) parseAndImport(ctx context.Context, csvData io.Reader) (*Stats, error) {
	reader := csv.NewReader(csvData)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	log.Debug().Strs("header", header).Msg("CSV header read")

	for _, column := range requiredColumns {
		if findColumnIndex(header, column) < 0 {
			return nil, fmt.Errorf("required column '%s' not found in CSV header", column)
		}
	}

	idIdx := findColumnIndex(header, "id")
	titleIdx := findColumnIndex(header, "title")
	descIdx := findColumnIndex(header, "description")
	imageIdx := findColumnIndex(header, "image_url")
	sourceIdx := findColumnIndex(header, "source")
	urlIdx := findColumnIndex(header, "url")
	typeIdx := findColumnIndex(header, "type")
	publishedIdx := findColumnIndex(header, "published_at")

	stats := &Stats{}
	lineCount := 1 // Header was already read

	for {
		lineCount++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", lineCount).Msg("Error reading CSV line")
			stats.Errors = append(stats.Errors, fmt.Sprintf("line %d: %v", lineCount, err))
			continue
		}

		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			log.Debug().Int("line", lineCount).Msg("Skipping empty row")
			continue
		}
		stats.Total++

		item := models.NewCatalogItem()
		item.ItemKey = safeGetValue(record, idIdx).String
		item.Title = safeGetValue(record, titleIdx).String
		item.Description = safeGetValue(record, descIdx)
		item.ImageURL = safeGetValue(record, imageIdx).String
		item.Source = safeGetValue(record, sourceIdx).String
		if u := safeGetValue(record, urlIdx); u.Valid {
			item.URL = u.String
		}
		if t := safeGetValue(record, typeIdx); t.Valid {
			item.Type = string(models.ParseItemType(t.String))
		}
		if p := safeGetValue(record, publishedIdx); p.Valid {
			ts, perr := time.Parse(time.RFC3339, p.String)
			if perr != nil {
				log.Warn().Err(perr).Int("line", lineCount).Msg("Invalid published_at, using import time")
			} else {
				item.PublishedAt = ts.UTC()
			}
		}

		if verr := item.FeedItem().Validate(); verr != nil {
			log.Warn().Err(verr).Int("line", lineCount).Msg("Skipping invalid row")
			stats.Errors = append(stats.Errors, fmt.Sprintf("line %d: %v", lineCount, verr))
			continue
		}

		logger := log.With().
			Int("line", lineCount).
			Str("item_key", item.ItemKey).
			Str("type", item.Type).
			Logger()

		inserted, err := i.repo.InsertItem(ctx, item)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to insert item")
			stats.Errors = append(stats.Errors, fmt.Sprintf("line %d: %v", lineCount, err))
			continue
		}
		if !inserted {
			logger.Warn().Msg("Duplicate item")
			stats.Duplicates++
			continue
		}

		stats.Imported++
		logger.Debug().Msg("Item inserted successfully")
	}

	return stats, nil
}

func findColumnIndex(header []string, columnName string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), columnName) {
			return i
		}
	}
	return -1
}

// safeGetValue returns a sql.NullString from a record at the specified index.
// If the index is out of bounds or the value is empty, it returns an invalid NullString.
func safeGetValue(record []string, index int) sql.NullString {
	if index >= 0 && index < len(record) && strings.TrimSpace(record[index]) != "" {
		return sql.NullString{
			String: strings.TrimSpace(record[index]),
			Valid:  true,
		}
	}
	return sql.NullString{Valid: false}
}
