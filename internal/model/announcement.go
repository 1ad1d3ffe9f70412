package model

import "time"

// Announcement states.
const (
	StateActive   = "activo"
	StateInactive = "inactivo"
)

// OwnerSummary is the owner data embedded in announcement projections.
// Email and Phone are only filled where contact details are shared, for
// example after a student opens a reservation.
type OwnerSummary struct {
	ID    uint64  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Announcement is the listing projection returned by the public catalogue
// and the detail endpoint.  Price is rendered as a decimal string exactly
// as stored.  Beds and Baths come from the bedrooms/bathrooms columns,
// Rating is the average of the review stars (0 without reviews) and Views
// is the tracked views_count.
type Announcement struct {
	ID           uint64       `json:"id"`
	OwnerID      uint64       `json:"-"`
	Title        string       `json:"title"`
	Description  *string      `json:"description"`
	Price        string       `json:"price"`
	Location     string       `json:"location"`
	District     string       `json:"district"`
	Latitude     *float64     `json:"latitude"`
	Longitude    *float64     `json:"longitude"`
	Images       []string     `json:"images"`
	Beds         int          `json:"beds"`
	Baths        int          `json:"baths"`
	Amenities    []string     `json:"amenities"`
	Rating       float64      `json:"rating"`
	ReviewCount  int          `json:"review_count"`
	Views        int          `json:"views"`
	State        string       `json:"state"`
	CreationDate time.Time    `json:"creation_date"`
	Owner        OwnerSummary `json:"owner"`
}

// AnnouncementFilter narrows the public listing.  Zero values mean "no
// filter"; Limit <= 0 returns everything.
type AnnouncementFilter struct {
	District string
	MinPrice *float64
	MaxPrice *float64
	Query    string
	Service  string
	Limit    int
}

// OwnerAnnouncement is one row of the owner dashboard.
type OwnerAnnouncement struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	Price        string    `json:"price"`
	District     string    `json:"district"`
	Images       []string  `json:"images"`
	Services     []string  `json:"services"`
	State        string    `json:"state"`
	Views        int       `json:"views"`
	Inquiries    int       `json:"inquiries"`
	Favorites    int       `json:"favorites"`
	CreationDate time.Time `json:"creationDate"`
}

// OwnerStatistics aggregates the dashboard rows.
type OwnerStatistics struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Views     int `json:"views"`
	Inquiries int `json:"inquiries"`
}

// OwnerDashboard is the body of GET /api/announcements/my-announcements.
type OwnerDashboard struct {
	Announcements []OwnerAnnouncement `json:"announcements"`
	Statistics    OwnerStatistics     `json:"statistics"`
}
