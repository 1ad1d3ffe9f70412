package model

import "time"

// Message is one entry of a conversation, with the sender's name resolved.
type Message struct {
	ID            uint64     `json:"id"`             // messages.id
	ReservationID uint64     `json:"reservation_id"` // messages.reservation_id
	SenderID      uint64     `json:"sender_id"`      // messages.sender_id
	SenderName    string     `json:"sender_name"`    // users.name of the sender
	Content       string     `json:"content"`        // messages.content
	SentDate      time.Time  `json:"sent_date"`      // messages.sent_date
	ReadAt        *time.Time `json:"read_at"`        // messages.read_at (nullable)
}

// Participant identifies the other party of a conversation.
type Participant struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// LastMessage is the preview shown in the conversation list.
type LastMessage struct {
	Content  string    `json:"content"`
	SentDate time.Time `json:"sent_date"`
}

// Conversation summarises one contact reservation from the caller's side.
type Conversation struct {
	ReservationID     uint64       `json:"reservation_id"`
	AnnouncementTitle string       `json:"announcement_title"`
	AnnouncementID    uint64       `json:"announcement_id"`
	Participant       Participant  `json:"participant"`
	LastMessage       *LastMessage `json:"last_message"`
	UnreadCount       int          `json:"unread_count"`
	CreationDate      time.Time    `json:"-"`
}

// AnnouncementRef is a compact announcement reference.
type AnnouncementRef struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// ConversationMessages is the body of GET /api/messages/conversation/:id.
type ConversationMessages struct {
	ReservationID uint64          `json:"reservation_id"`
	Announcement  AnnouncementRef `json:"announcement"`
	Participant   Participant     `json:"participant"`
	Messages      []Message       `json:"messages"`
}
