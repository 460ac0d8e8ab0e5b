package fallback

import (
	"time"

	"reddot-watch/newsfeed/internal/models"
)

// Builtin returns the default entertainment catalog, dated at the given time.
func Builtin(now time.Time) []models.FeedItem {
	now = now.UTC()
	return []models.FeedItem{
		{
			ID:          "entertainment-1",
			Title:       "Latest Tech Memes That Will Make You LOL",
			Description: "The internet's funniest tech memes of the week that perfectly capture our digital struggles.",
			ImageURL:    "https://picsum.photos/800/600?random=1",
			Source:      "Tech Humor Daily",
			URL:         models.PlaceholderURL,
			PublishedAt: now,
			Type:        models.TypeMeme,
		},
		{
			ID:          "entertainment-2",
			Title:       "Viral Cat Videos That Broke the Internet",
			Description: "These adorable feline moments have taken social media by storm.",
			ImageURL:    "https://picsum.photos/800/600?random=2",
			Source:      "Pet Lovers Weekly",
			URL:         models.PlaceholderURL,
			PublishedAt: now,
			Type:        models.TypeViral,
		},
		{
			ID:          "entertainment-3",
			Title:       "Gaming Memes That Every Player Can Relate To",
			Description: "From rage quits to epic wins, these gaming memes hit too close to home.",
			ImageURL:    "https://picsum.photos/800/600?random=3",
			Source:      "Gaming Culture",
			URL:         models.PlaceholderURL,
			PublishedAt: now,
			Type:        models.TypeMeme,
		},
		{
			ID:          "entertainment-4",
			Title:       "Work From Home Memes That Are Too Real",
			Description: "Remote work struggles captured in hilarious memes that every WFH employee understands.",
			ImageURL:    "https://picsum.photos/800/600?random=4",
			Source:      "Remote Work Life",
			URL:         models.PlaceholderURL,
			PublishedAt: now,
			Type:        models.TypeMeme,
		},
		{
			ID:          "entertainment-5",
			Title:       "Food Memes That Will Make You Hungry",
			Description: "The most relatable food memes that perfectly capture our relationship with delicious dishes.",
			ImageURL:    "https://picsum.photos/800/600?random=5",
			Source:      "Foodie Memes",
			URL:         models.PlaceholderURL,
			PublishedAt: now,
			Type:        models.TypeMeme,
		},
	}
}
