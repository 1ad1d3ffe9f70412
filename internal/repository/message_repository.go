package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/roomlock/roomlock-server/internal/model"
)

// MessageRepo appends and reads conversation messages.  A conversation is
// a contact reservation; its messages are ordered by sent_date then id.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// ListConversations returns every contact reservation in which userID is
// the student or the announcement owner, newest first, with the last
// message and the number of unread messages sent by the other side.
func (r *MessageRepo) ListConversations(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	const q = `SELECT r.id, r.creation_date, a.id, a.title,
       s.id, s.name, s.role, o.id, o.name, o.role,
       lm.content, lm.sent_date,
       (SELECT COUNT(*) FROM messages m
         WHERE m.reservation_id = r.id AND m.sender_id <> ? AND m.read_at IS NULL) AS unread
FROM reservations r
JOIN announcements a ON a.id = r.announcement_id
JOIN users s ON s.id = r.student_id
JOIN users o ON o.id = a.owner_id
LEFT JOIN messages lm ON lm.id = (
    SELECT m2.id FROM messages m2 WHERE m2.reservation_id = r.id
    ORDER BY m2.sent_date DESC, m2.id DESC LIMIT 1)
WHERE r.contact_key = 1 AND (r.student_id = ? OR a.owner_id = ?)
ORDER BY r.creation_date DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Conversation{}
	for rows.Next() {
		var (
			acc     model.ReservationAccess
			c       model.Conversation
			content sql.NullString
			sent    sql.NullTime
		)
		if err := rows.Scan(&acc.ReservationID, &c.CreationDate, &acc.AnnouncementID, &acc.AnnouncementTitle,
			&acc.StudentID, &acc.StudentName, &acc.StudentRole,
			&acc.OwnerID, &acc.OwnerName, &acc.OwnerRole,
			&content, &sent, &c.UnreadCount); err != nil {
			return nil, err
		}
		c.ReservationID = acc.ReservationID
		c.AnnouncementID = acc.AnnouncementID
		c.AnnouncementTitle = acc.AnnouncementTitle
		c.Participant = acc.Counterpart(userID)
		if content.Valid && sent.Valid {
			c.LastMessage = &model.LastMessage{Content: content.String, SentDate: sent.Time}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByReservation returns the conversation's messages in order.
func (r *MessageRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.Message, error) {
	const q = `SELECT m.id, m.reservation_id, m.sender_id, u.name, m.content, m.sent_date, m.read_at
FROM messages m
JOIN users u ON u.id = m.sender_id
WHERE m.reservation_id = ?
ORDER BY m.sent_date ASC, m.id ASC`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		var (
			m      model.Message
			readAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.ReservationID, &m.SenderID, &m.SenderName, &m.Content, &m.SentDate, &readAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead stamps read_at on every unread message of the reservation that
// was sent by someone other than readerID.
func (r *MessageRepo) MarkRead(ctx context.Context, reservationID, readerID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE messages SET read_at = ? WHERE reservation_id = ? AND sender_id <> ? AND read_at IS NULL",
		time.Now().UTC().Truncate(time.Millisecond), reservationID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Create appends a message and returns it with the sender's name.
func (r *MessageRepo) Create(ctx context.Context, reservationID, senderID uint64, content string) (model.Message, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (reservation_id, sender_id, content, sent_date) VALUES (?, ?, ?, ?)",
		reservationID, senderID, content, now)
	if err != nil {
		if isMissingParent(err) {
			return model.Message{}, ErrNotFound
		}
		return model.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, err
	}
	m := model.Message{
		ID:            uint64(id),
		ReservationID: reservationID,
		SenderID:      senderID,
		Content:       content,
		SentDate:      now,
	}
	if err := r.db.QueryRowContext(ctx, "SELECT name FROM users WHERE id = ?", senderID).Scan(&m.SenderName); err != nil {
		return model.Message{}, err
	}
	return m, nil
}
