package model

import (
	"strconv"
	"time"
)

// Review mirrors the `reviews` table.  Each review is anchored to its own
// completed reservation and is unique per (UserID, AnnouncementID).
type Review struct {
	ID             uint64    `json:"id"`              // reviews.id
	ReservationID  uint64    `json:"reservation_id"`  // reviews.reservation_id
	UserID         uint64    `json:"user_id"`         // reviews.user_id
	AnnouncementID uint64    `json:"announcement_id"` // reviews.announcement_id
	Stars          int       `json:"rating"`          // reviews.stars
	Comment        string    `json:"comment"`         // reviews.comment
	ImageURL       *string   `json:"image_url"`       // reviews.image_url (nullable)
	CreatedAt      time.Time `json:"created_at"`      // reviews.created_at
}

// ReviewView is one entry of GET /api/announcements/:id/reviews.  Date is
// the Spanish long form of CreatedAt, e.g. "14 de octubre de 2026".
type ReviewView struct {
	ID        uint64    `json:"id"`
	User      string    `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"-"`
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// SpanishLongDate formats t as "2 de enero de 2006".
func SpanishLongDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + " de " + spanishMonths[t.Month()-1] + " de " + strconv.Itoa(t.Year())
}
