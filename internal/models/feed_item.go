package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ItemType is the closed category tag of a feed item.
type ItemType string

const (
	TypeNews  ItemType = "news"
	TypeMeme  ItemType = "meme"
	TypeViral ItemType = "viral"
	TypeOther ItemType = "other"
)

// PlaceholderURL marks an item without an external target.
const PlaceholderURL = "#"

// SubstituteImageURL returns the stock image used for items that arrive
// without one. n picks the picture.
func SubstituteImageURL(n int) string {
	return fmt.Sprintf("https://picsum.photos/800/600?random=%d", n)
}

// Valid reports whether t is one of the known categories.
func (t ItemType) Valid() bool {
	switch t {
	case TypeNews, TypeMeme, TypeViral, TypeOther:
		return true
	}
	return false
}

// ParseItemType maps a free-form string onto the closed set. Unknown values become TypeOther.
func ParseItemType(s string) ItemType {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return TypeOther
}

// FeedItem is one unit of content served in a feed page.
type FeedItem struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	ImageURL    string    `json:"imageUrl" yaml:"image_url"`
	Source      string    `json:"source" yaml:"source"`
	URL         string    `json:"url" yaml:"url"`
	PublishedAt time.Time `json:"publishedAt" yaml:"published_at"`
	Type        ItemType  `json:"type" yaml:"type"`
}

var (
	ErrMissingID    = errors.New("feed item has empty id")
	ErrMissingTitle = errors.New("feed item has empty title")
	ErrMissingImage = errors.New("feed item has empty image url")
	ErrMissingURL   = errors.New("feed item has empty url")
)

// Validate checks the invariants every served item must satisfy.
func (f FeedItem) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(f.Title) == "" {
		return ErrMissingTitle
	}
	if !f.Type.Valid() {
		return fmt.Errorf("feed item %s has unknown type %q", f.ID, f.Type)
	}
	if f.ImageURL == "" {
		return ErrMissingImage
	}
	if f.URL == "" {
		return ErrMissingURL
	}
	return nil
}
