package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validItem() FeedItem {
	return FeedItem{
		ID:          "news-1",
		Title:       "Headline",
		ImageURL:    "https://picsum.photos/800/600?random=1",
		Source:      "Wire",
		URL:         PlaceholderURL,
		PublishedAt: time.Now(),
		Type:        TypeNews,
	}
}

func TestFeedItemValidate(t *testing.T) {
	assert.NoError(t, validItem().Validate())

	it := validItem()
	it.ID = "  "
	assert.ErrorIs(t, it.Validate(), ErrMissingID)

	it = validItem()
	it.Title = ""
	assert.ErrorIs(t, it.Validate(), ErrMissingTitle)

	it = validItem()
	it.Type = "podcast"
	assert.Error(t, it.Validate())

	it = validItem()
	it.ImageURL = ""
	assert.ErrorIs(t, it.Validate(), ErrMissingImage)

	it = validItem()
	it.URL = ""
	assert.ErrorIs(t, it.Validate(), ErrMissingURL)

	it = validItem()
	it.Description = ""
	assert.NoError(t, it.Validate(), "description may be empty")
}

func TestParseItemType(t *testing.T) {
	assert.Equal(t, TypeMeme, ParseItemType(" MEME "))
	assert.Equal(t, TypeViral, ParseItemType("viral"))
	assert.Equal(t, TypeOther, ParseItemType("podcast"))
	assert.Equal(t, TypeOther, ParseItemType(""))
}

func TestCatalogItemFeedItem(t *testing.T) {
	row := NewCatalogItem()
	row.ItemKey = "entertainment-1"
	row.Title = "Cats"
	row.ImageURL = "https://picsum.photos/800/600?random=2"
	row.Source = "Pet Lovers Weekly"
	row.URL = ""
	row.Type = "VIRAL"
	row.Description = sql.NullString{String: "Feline moments", Valid: true}

	it := row.FeedItem()
	assert.Equal(t, "entertainment-1", it.ID)
	assert.Equal(t, PlaceholderURL, it.URL)
	assert.Equal(t, TypeViral, it.Type)
	assert.Equal(t, "Feline moments", it.Description)
	assert.NoError(t, it.Validate())
}

func TestSubstituteImageURL(t *testing.T) {
	assert.Equal(t, "https://picsum.photos/800/600?random=7", SubstituteImageURL(7))
}
