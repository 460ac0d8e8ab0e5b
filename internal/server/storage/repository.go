package storage

import (
	"context"
	"fmt"

	"reddot-watch/newsfeed/internal/database"
	"reddot-watch/newsfeed/internal/models"
)

// CatalogRepository defines operations on the fallback catalog table.
type CatalogRepository interface {
	// ListItems returns every catalog row, newest first, capped at limit when limit > 0.
	ListItems(ctx context.Context, limit int) ([]models.CatalogItem, error)
	// InsertItem stores a row. It reports false when an item with the same key,
	// or the same source and url, already exists.
	InsertItem(ctx context.Context, item *models.CatalogItem) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// sqlxRepository implements CatalogRepository using sqlx.
type sqlxRepository struct {
	db *database.DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *database.DB) CatalogRepository {
	return &sqlxRepository{db: db}
}

func (r *sqlxRepository) ListItems(ctx context.Context, limit int) ([]models.CatalogItem, error) {
	query := `SELECT * FROM catalog_items ORDER BY published_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	items := []models.CatalogItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return items, nil
}

func (r *sqlxRepository) InsertItem(ctx context.Context, item *models.CatalogItem) (bool, error) {
	res, err := r.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO catalog_items
			(item_key, title, description, image_url, source, url, type, published_at, created_at, updated_at)
		VALUES
			(:item_key, :title, :description, :image_url, :source, :url, :type, :published_at, :created_at, :updated_at)
	`, item)
	if err != nil {
		return false, fmt.Errorf("insert catalog item %s: %w", item.ItemKey, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for catalog item %s: %w", item.ItemKey, err)
	}
	return n > 0, nil
}

func (r *sqlxRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM catalog_items`); err != nil {
		return 0, fmt.Errorf("count catalog items: %w", err)
	}
	return n, nil
}

// LoadFeedItems reads the catalog and converts it to served items.
func LoadFeedItems(ctx context.Context, repo CatalogRepository, limit int) ([]models.FeedItem, error) {
	rows, err := repo.ListItems(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]models.FeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.FeedItem())
	}
	return items, nil
}
