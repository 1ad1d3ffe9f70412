package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/roomlock/roomlock-server/internal/model"
)

// AnnouncementRepo reads announcements together with their owner, images,
// services and derived review statistics.  The filtered catalogue query is
// assembled with goqu; the fixed reporting queries are plain SQL.
type AnnouncementRepo struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
}

func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo {
	return &AnnouncementRepo{db: db, dialect: goqu.Dialect("mysql")}
}

var (
	ratingExpr      = goqu.L("COALESCE((SELECT AVG(rv.stars) FROM reviews rv WHERE rv.announcement_id = a.id), 0)")
	reviewCountExpr = goqu.L("(SELECT COUNT(*) FROM reviews rv WHERE rv.announcement_id = a.id)")
)

func (r *AnnouncementRepo) baseSelect() *goqu.SelectDataset {
	return r.dialect.From(goqu.T("announcements").As("a")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("a.owner_id")))).
		Select(
			goqu.I("a.id"), goqu.I("a.owner_id"), goqu.I("a.title"), goqu.I("a.description"),
			goqu.I("a.price"), goqu.I("a.district"), goqu.I("a.latitude"), goqu.I("a.longitude"),
			goqu.I("a.bedrooms"), goqu.I("a.bathrooms"), goqu.I("a.state"), goqu.I("a.views_count"),
			goqu.I("a.creation_date"), goqu.I("u.name"),
			ratingExpr.As("rating"), reviewCountExpr.As("review_count"),
		).
		Prepared(true)
}

// filterExpressions converts the filter into goqu conditions.  Only active
// announcements are listed publicly.
func (r *AnnouncementRepo) filterExpressions(f model.AnnouncementFilter) []exp.Expression {
	conds := []exp.Expression{goqu.I("a.state").Eq(model.StateActive)}
	if f.District != "" {
		conds = append(conds, goqu.I("a.district").Eq(f.District))
	}
	if f.MinPrice != nil {
		conds = append(conds, goqu.I("a.price").Gte(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, goqu.I("a.price").Lte(*f.MaxPrice))
	}
	if f.Query != "" {
		like := containsPattern(f.Query)
		conds = append(conds, goqu.Or(
			goqu.I("a.title").ILike(like),
			goqu.I("a.description").ILike(like),
		))
	}
	if f.Service != "" {
		sub := r.dialect.From("announcement_services").
			Select("announcement_id").
			Where(goqu.C("service").Eq(f.Service))
		conds = append(conds, goqu.I("a.id").In(sub))
	}
	return conds
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches q literally anywhere in a LIKE operand.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// List returns announcements matching the filter, newest first.
func (r *AnnouncementRepo) List(ctx context.Context, f model.AnnouncementFilter) ([]model.Announcement, error) {
	ds := r.baseSelect().
		Where(r.filterExpressions(f)...).
		Order(goqu.I("a.creation_date").Desc(), goqu.I("a.id").Desc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachMedia(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single announcement regardless of its state.
func (r *AnnouncementRepo) Get(ctx context.Context, id uint64) (model.Announcement, error) {
	query, args, err := r.baseSelect().Where(goqu.I("a.id").Eq(id)).Limit(1).ToSQL()
	if err != nil {
		return model.Announcement{}, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return model.Announcement{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Announcement{}, err
		}
		return model.Announcement{}, ErrNotFound
	}
	a, err := scanAnnouncement(rows)
	if err != nil {
		return model.Announcement{}, err
	}
	rows.Close()

	list := []model.Announcement{a}
	if err := r.attachMedia(ctx, list); err != nil {
		return model.Announcement{}, err
	}
	return list[0], nil
}

// IncrementViews bumps views_count by one.
func (r *AnnouncementRepo) IncrementViews(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE announcements SET views_count = views_count + 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// OwnerOf returns the owner of an announcement, or ErrNotFound.
func (r *AnnouncementRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM announcements WHERE id = ? LIMIT 1", id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return ownerID, err
}

// ListForOwner returns the owner's announcements with their view, inquiry
// and favorite counters.  Inquiries count contact reservations only.
func (r *AnnouncementRepo) ListForOwner(ctx context.Context, ownerID uint64) ([]model.OwnerAnnouncement, error) {
	const q = `SELECT a.id, a.title, a.description, a.price, a.district, a.state, a.views_count, a.creation_date,
       (SELECT COUNT(*) FROM reservations r WHERE r.announcement_id = a.id AND r.contact_key = 1) AS inquiries,
       (SELECT COUNT(*) FROM favorites f WHERE f.announcement_id = a.id) AS favorites
FROM announcements a
WHERE a.owner_id = ?
ORDER BY a.creation_date DESC, a.id DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.OwnerAnnouncement{}
	var ids []uint64
	for rows.Next() {
		var (
			o    model.OwnerAnnouncement
			desc sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Title, &desc, &o.Price, &o.District, &o.State, &o.Views,
			&o.CreationDate, &o.Inquiries, &o.Favorites); err != nil {
			return nil, err
		}
		o.Description = nullStringPtr(desc)
		out = append(out, o)
		ids = append(ids, o.ID)
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

func (r *AnnouncementRepo) attachMedia(ctx context.Context, list []model.Announcement) error {
	ids := make([]uint64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	media, err := loadAnnouncementMedia(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for i := range list {
		m := media[list[i].ID]
		list[i].Images = m.images
		list[i].Amenities = m.services
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(s scanner) (model.Announcement, error) {
	var (
		a        model.Announcement
		desc     sql.NullString
		lat, lng sql.NullFloat64
	)
	err := s.Scan(&a.ID, &a.OwnerID, &a.Title, &desc, &a.Price, &a.District, &lat, &lng,
		&a.Beds, &a.Baths, &a.State, &a.Views, &a.CreationDate, &a.Owner.Name,
		&a.Rating, &a.ReviewCount)
	if err != nil {
		return model.Announcement{}, err
	}
	a.Description = nullStringPtr(desc)
	a.Latitude = nullFloatPtr(lat)
	a.Longitude = nullFloatPtr(lng)
	a.Location = a.District
	a.Owner.ID = a.OwnerID
	return a, nil
}

type announcementMedia struct {
	images   []string
	services []string
}

// loadAnnouncementMedia fetches images and services for many announcements
// with one query per table.  Every requested id gets non-nil slices.
func loadAnnouncementMedia(ctx context.Context, db *sql.DB, ids []uint64) (map[uint64]announcementMedia, error) {
	out := make(map[uint64]announcementMedia, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	for _, id := range ids {
		out[id] = announcementMedia{images: []string{}, services: []string{}}
	}
	d := goqu.Dialect("mysql")

	imgSQL, imgArgs, err := d.From("announcement_images").
		Select("announcement_id", "url").
		Where(goqu.C("announcement_id").In(ids)).
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	if err := collectPairs(ctx, db, imgSQL, imgArgs, func(id uint64, v string) {
		m := out[id]
		m.images = append(m.images, v)
		out[id] = m
	}); err != nil {
		return nil, err
	}

	svcSQL, svcArgs, err := d.From("announcement_services").
		Select("announcement_id", "service").
		Where(goqu.C("announcement_id").In(ids)).
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	if err := collectPairs(ctx, db, svcSQL, svcArgs, func(id uint64, v string) {
		m := out[id]
		m.services = append(m.services, v)
		out[id] = m
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func collectPairs(ctx context.Context, db *sql.DB, query string, args []any, add func(uint64, string)) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id uint64
			v  string
		)
		if err := rows.Scan(&id, &v); err != nil {
			return err
		}
		add(id, v)
	}
	return rows.Err()
}
