package model

import "time"

// Reservation states.
const (
	ReservationPending   = "pendiente"
	ReservationCompleted = "completado"
)

// Reservation records a student's contact request for an announcement.
// Contact reservations (the conversation threads) have Contact set; the
// rows created to anchor a review do not.
//
// Fields:
//  ID             – primary key identifier.
//  StudentID      – user who opened the contact.
//  AnnouncementID – announcement being contacted.
//  State          – pendiente, completado, ...
//  Contact        – true when reservations.contact_key is 1.
//  CreationDate   – creation timestamp.
type Reservation struct {
	ID             uint64    `json:"id"`              // reservations.id
	StudentID      uint64    `json:"student_id"`      // reservations.student_id
	AnnouncementID uint64    `json:"announcement_id"` // reservations.announcement_id
	State          string    `json:"state"`           // reservations.state
	Contact        bool      `json:"-"`               // reservations.contact_key IS NOT NULL
	CreationDate   time.Time `json:"creation_date"`   // reservations.creation_date
}

// ReservationAnnouncement is the announcement summary attached to a
// reservation response, including the owner's contact details and at most
// one image.
type ReservationAnnouncement struct {
	ID       uint64       `json:"id"`
	Title    string       `json:"title"`
	Price    string       `json:"price"`
	District string       `json:"district"`
	Owner    OwnerSummary `json:"owner"`
	Images   []string     `json:"images"`
}

// ReservationDetail is the body of POST /api/reservations.
type ReservationDetail struct {
	Reservation
	Announcement ReservationAnnouncement `json:"announcement"`
}

// ReservationAccess is the minimal data needed to authorise access to a
// conversation: the student and the owner of the announcement.  Contact is
// false for review anchors, which are not conversations.
type ReservationAccess struct {
	ReservationID     uint64
	Contact           bool
	StudentID         uint64
	StudentName       string
	StudentRole       string
	OwnerID           uint64
	OwnerName         string
	OwnerRole         string
	AnnouncementID    uint64
	AnnouncementTitle string
}

// IsParticipant reports whether userID is the student or the owner.
func (a ReservationAccess) IsParticipant(userID uint64) bool {
	return userID == a.StudentID || userID == a.OwnerID
}

// Counterpart returns the participant that is not userID.
func (a ReservationAccess) Counterpart(userID uint64) Participant {
	if userID == a.StudentID {
		return Participant{ID: a.OwnerID, Name: a.OwnerName, Role: a.OwnerRole}
	}
	return Participant{ID: a.StudentID, Name: a.StudentName, Role: a.StudentRole}
}
