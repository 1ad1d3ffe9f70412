package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/roomlock/roomlock-server/internal/model"
)

// ReviewRepo stores reviews.  Each review is anchored to its own
// completado reservation created in the same transaction.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// ListByAnnouncement returns the announcement's reviews, newest first.
func (r *ReviewRepo) ListByAnnouncement(ctx context.Context, announcementID uint64) ([]model.ReviewView, error) {
	const q = `SELECT rv.id, u.name, rv.stars, rv.comment, rv.image_url, rv.created_at
FROM reviews rv
JOIN users u ON u.id = rv.user_id
WHERE rv.announcement_id = ?
ORDER BY rv.created_at DESC, rv.id DESC`
	rows, err := r.db.QueryContext(ctx, q, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ReviewView{}
	for rows.Next() {
		var (
			v   model.ReviewView
			img sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.User, &v.Rating, &v.Comment, &img, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.ImageURL = nullStringPtr(img)
		v.Date = model.SpanishLongDate(v.CreatedAt)
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateWithReservation inserts the anchoring reservation and the review in
// one transaction.  A second review by the same user for the same
// announcement fails with ErrDuplicateReview and leaves nothing behind.
func (r *ReviewRepo) CreateWithReservation(ctx context.Context, rv *model.Review) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (student_id, announcement_id, state, contact_key, creation_date) VALUES (?, ?, ?, NULL, ?)",
		rv.UserID, rv.AnnouncementID, model.ReservationCompleted, now)
	if err != nil {
		if isMissingParent(err) {
			return ErrNotFound
		}
		return err
	}
	resID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx,
		"INSERT INTO reviews (reservation_id, user_id, announcement_id, stars, comment, image_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		resID, rv.UserID, rv.AnnouncementID, rv.Stars, rv.Comment, rv.ImageURL, now)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateReview
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	rv.ID = uint64(id)
	rv.ReservationID = uint64(resID)
	rv.CreatedAt = now
	return nil
}
