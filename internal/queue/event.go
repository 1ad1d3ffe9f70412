// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Event types published by the domain services.
const (
	EventReservationCreated = "reservation.created"
	EventMessageSent        = "message.sent"
	EventReviewCreated      = "review.created"
)

// Event is the envelope published to the activity queue.  Consumers get
// the ids they need without querying the primary database.
type Event struct {
	Type           string    `json:"type"`
	ReservationID  uint64    `json:"reservation_id,omitempty"`
	AnnouncementID uint64    `json:"announcement_id,omitempty"`
	ActorID        uint64    `json:"actor_id"`
	RecipientID    uint64    `json:"recipient_id,omitempty"`
	MessageID      uint64    `json:"message_id,omitempty"`
	ReviewID       uint64    `json:"review_id,omitempty"`
	Rating         int       `json:"rating,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
