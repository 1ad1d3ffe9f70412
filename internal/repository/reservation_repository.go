package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/roomlock/roomlock-server/internal/model"
)

// ReservationRepo stores contact reservations and resolves the
// participants of a conversation.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateOrGetContact returns the contact reservation for the pair, creating
// a pendiente one when none exists.  The upsert relies on the unique key
// uq_reservation_contact; LAST_INSERT_ID(id) makes LastInsertId report the
// existing row.  created is true only when this call inserted the row.
func (r *ReservationRepo) CreateOrGetContact(ctx context.Context, studentID, announcementID uint64) (id uint64, created bool, err error) {
	const q = `INSERT INTO reservations (student_id, announcement_id, state, contact_key, creation_date)
VALUES (?, ?, ?, 1, ?)
ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx, q, studentID, announcementID, model.ReservationPending, now)
	if err != nil {
		if isMissingParent(err) {
			return 0, false, ErrNotFound
		}
		return 0, false, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	return uint64(lastID), n == 1, nil
}

// GetDetail loads a reservation with its announcement, the owner's contact
// details and the first image.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	const q = `SELECT r.id, r.student_id, r.announcement_id, r.state, r.contact_key IS NOT NULL, r.creation_date,
       a.title, a.price, a.district,
       o.id, o.name, o.email, o.phone,
       (SELECT i.url FROM announcement_images i WHERE i.announcement_id = a.id ORDER BY i.id LIMIT 1)
FROM reservations r
JOIN announcements a ON a.id = r.announcement_id
JOIN users o ON o.id = a.owner_id
WHERE r.id = ?`
	var (
		d            model.ReservationDetail
		phone, image sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.StudentID, &d.AnnouncementID, &d.State, &d.Contact, &d.CreationDate,
		&d.Announcement.Title, &d.Announcement.Price, &d.Announcement.District,
		&d.Announcement.Owner.ID, &d.Announcement.Owner.Name, &d.Announcement.Owner.Email, &phone,
		&image,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReservationDetail{}, ErrNotFound
	}
	if err != nil {
		return model.ReservationDetail{}, err
	}
	d.Announcement.ID = d.AnnouncementID
	d.Announcement.Owner.Phone = nullStringPtr(phone)
	d.Announcement.Images = []string{}
	if image.Valid {
		d.Announcement.Images = append(d.Announcement.Images, image.String)
	}
	return d, nil
}

// GetAccess resolves the student and the announcement owner of a
// reservation.  Review anchors are returned with Contact unset.
func (r *ReservationRepo) GetAccess(ctx context.Context, id uint64) (model.ReservationAccess, error) {
	const q = `SELECT r.id, r.contact_key IS NOT NULL, s.id, s.name, s.role, o.id, o.name, o.role, a.id, a.title
FROM reservations r
JOIN users s ON s.id = r.student_id
JOIN announcements a ON a.id = r.announcement_id
JOIN users o ON o.id = a.owner_id
WHERE r.id = ?`
	var acc model.ReservationAccess
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&acc.ReservationID, &acc.Contact, &acc.StudentID, &acc.StudentName, &acc.StudentRole,
		&acc.OwnerID, &acc.OwnerName, &acc.OwnerRole,
		&acc.AnnouncementID, &acc.AnnouncementTitle,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReservationAccess{}, ErrNotFound
	}
	return acc, err
}
