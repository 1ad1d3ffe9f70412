package model

import "time"

// Favorite mirrors a row of the `favorites` table.  The pair
// (UserID, AnnouncementID) is unique.
type Favorite struct {
	ID             uint64    `json:"id"`              // favorites.id
	UserID         uint64    `json:"-"`               // favorites.user_id
	AnnouncementID uint64    `json:"announcement_id"` // favorites.announcement_id
	CreatedAt      time.Time `json:"created_at"`      // favorites.created_at
}

// FavoriteStats groups the numeric attributes shown on a favorite card.
type FavoriteStats struct {
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	Rating    float64 `json:"rating"`
}

// FavoriteAnnouncement is the denormalised shape returned by GET /api/favorites.
type FavoriteAnnouncement struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Price       string        `json:"price"`
	District    string        `json:"district"`
	Latitude    *float64      `json:"latitude"`
	Longitude   *float64      `json:"longitude"`
	Images      []string      `json:"images"`
	Services    []string      `json:"services"`
	Owner       OwnerSummary  `json:"owner"`
	Stats       FavoriteStats `json:"stats"`
	IsFavorite  bool          `json:"is_favorite"`
	CreatedAt   time.Time     `json:"created_at"`
}
