package models

import (
	"database/sql"
	"time"
)

// CatalogItem represents a row in the 'catalog_items' table
type CatalogItem struct {
	ID          int64          `db:"id"`
	ItemKey     string         `db:"item_key"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	ImageURL    string         `db:"image_url"`
	Source      string         `db:"source"`
	URL         string         `db:"url"`
	Type        string         `db:"type"`
	PublishedAt time.Time      `db:"published_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// NewCatalogItem creates a new CatalogItem with default values
func NewCatalogItem() *CatalogItem {
	now := time.Now()
	return &CatalogItem{
		URL:         PlaceholderURL,
		Type:        string(TypeOther),
		PublishedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FeedItem converts the row into the served item shape.
func (c CatalogItem) FeedItem() FeedItem {
	url := c.URL
	if url == "" {
		url = PlaceholderURL
	}
	return FeedItem{
		ID:          c.ItemKey,
		Title:       c.Title,
		Description: c.Description.String,
		ImageURL:    c.ImageURL,
		Source:      c.Source,
		URL:         url,
		PublishedAt: c.PublishedAt,
		Type:        ParseItemType(c.Type),
	}
}
