package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/roomlock/roomlock-server/internal/model"
)

// FavoriteRepo persists the (user, announcement) favorite pairs.
type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Add inserts the pair.  The unique key uq_favorite_user_announcement turns
// a concurrent or repeated add into ErrAlreadyFavorited; a missing
// announcement surfaces as ErrNotFound through the foreign key.
func (r *FavoriteRepo) Add(ctx context.Context, userID, announcementID uint64) (model.Favorite, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO favorites (user_id, announcement_id, created_at) VALUES (?, ?, ?)",
		userID, announcementID, now)
	if err != nil {
		switch {
		case isDuplicateKey(err):
			return model.Favorite{}, ErrAlreadyFavorited
		case isMissingParent(err):
			return model.Favorite{}, ErrNotFound
		}
		return model.Favorite{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Favorite{}, err
	}
	return model.Favorite{ID: uint64(id), UserID: userID, AnnouncementID: announcementID, CreatedAt: now}, nil
}

// Remove deletes the pair or returns ErrNotFavorited when nothing matched.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, announcementID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = ? AND announcement_id = ?", userID, announcementID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFavorited
	}
	return nil
}

// Exists reports whether the user has favorited the announcement.
func (r *FavoriteRepo) Exists(ctx context.Context, userID, announcementID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = ? AND announcement_id = ?)",
		userID, announcementID).Scan(&ok)
	return ok, err
}

// ListByUser returns the user's favorites, newest first, in display shape.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uint64) ([]model.FavoriteAnnouncement, error) {
	const q = `SELECT a.id, a.title, a.description, a.price, a.district, a.latitude, a.longitude,
       a.bedrooms, a.bathrooms, u.id, u.name,
       COALESCE((SELECT AVG(rv.stars) FROM reviews rv WHERE rv.announcement_id = a.id), 0) AS rating,
       f.created_at
FROM favorites f
JOIN announcements a ON a.id = f.announcement_id
JOIN users u ON u.id = a.owner_id
WHERE f.user_id = ?
ORDER BY f.created_at DESC, f.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FavoriteAnnouncement{}
	var ids []uint64
	for rows.Next() {
		var (
			fa       model.FavoriteAnnouncement
			desc     sql.NullString
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&fa.ID, &fa.Title, &desc, &fa.Price, &fa.District, &lat, &lng,
			&fa.Stats.Bedrooms, &fa.Stats.Bathrooms, &fa.Owner.ID, &fa.Owner.Name,
			&fa.Stats.Rating, &fa.CreatedAt); err != nil {
			return nil, err
		}
		fa.Description = nullStringPtr(desc)
		fa.Latitude = nullFloatPtr(lat)
		fa.Longitude = nullFloatPtr(lng)
		fa.IsFavorite = true
		out = append(out, fa)
		ids = append(ids, fa.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	media, err := loadAnnouncementMedia(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		m := media[out[i].ID]
		out[i].Images = m.images
		out[i].Services = m.services
	}
	return out, nil
}
