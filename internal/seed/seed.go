// Package seed loads demo accounts and listings into an empty database.
// Running it twice is harmless: existing users are reused and an owner
// that already has listings is skipped.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/repository"
	"github.com/roomlock/roomlock-server/internal/utils"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "pw123"

type demoUser struct {
	Name, Email, Role string
	Phone, University string
}

var (
	demoOwner   = demoUser{Name: "María", Email: "owner@test.com", Role: model.RoleOwner, Phone: "987654321"}
	demoStudent = demoUser{Name: "Juan", Email: "juan@uni.edu.pe", Role: model.RoleStudent, University: "Universidad de Lima"}
)

type listing struct {
	Title, Description, District string
	Price                        float64
	Lat, Lng                     float64
	Bedrooms, Bathrooms          int
	Images, Services             []string
}

var demoListings = []listing{
	{
		Title:       "Cuarto amoblado cerca a la universidad",
		Description: "Habitación con escritorio, closet y baño propio a 10 minutos caminando.",
		District:    "Surco", Price: 800, Lat: -12.0846, Lng: -76.9713, Bedrooms: 1, Bathrooms: 1,
		Images:   []string{"/uploads/seed/surco-1.jpg", "/uploads/seed/surco-2.jpg"},
		Services: []string{"wifi", "agua", "luz"},
	},
	{
		Title:       "Minidepartamento en Miraflores",
		Description: "Sala comedor, cocina equipada y lavandería en el edificio.",
		District:    "Miraflores", Price: 1200, Lat: -12.1211, Lng: -77.0297, Bedrooms: 1, Bathrooms: 1,
		Images:   []string{"/uploads/seed/miraflores-1.jpg"},
		Services: []string{"wifi", "lavandería", "cocina"},
	},
	{
		Title:       "Habitación compartida en San Miguel",
		Description: "Ideal para estudiantes, ambiente tranquilo y seguro.",
		District:    "San Miguel", Price: 550, Lat: -12.0770, Lng: -77.0918, Bedrooms: 2, Bathrooms: 1,
		Images:   []string{"/uploads/seed/sanmiguel-1.jpg"},
		Services: []string{"wifi", "agua"},
	},
}

// Result reports what Run created.
type Result struct {
	OwnerID       uint64
	StudentID     uint64
	Announcements []uint64
}

// Run seeds the demo data.  cost is the bcrypt cost for the passwords.
func Run(ctx context.Context, db *sql.DB, cost int) (Result, error) {
	users := repository.NewUserRepo(db)
	var res Result
	var err error
	if res.OwnerID, err = ensureUser(ctx, users, demoOwner, cost); err != nil {
		return res, err
	}
	if res.StudentID, err = ensureUser(ctx, users, demoStudent, cost); err != nil {
		return res, err
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM announcements WHERE owner_id = ?", res.OwnerID).Scan(&n); err != nil {
		return res, err
	}
	if n > 0 {
		log.Info().Uint64("owner_id", res.OwnerID).Int("announcements", n).Msg("owner already has listings, skipping")
		return res, nil
	}
	for _, l := range demoListings {
		id, err := insertListing(ctx, db, res.OwnerID, l)
		if err != nil {
			return res, fmt.Errorf("seed %q: %w", l.Title, err)
		}
		res.Announcements = append(res.Announcements, id)
	}
	return res, nil
}

func ensureUser(ctx context.Context, users *repository.UserRepo, d demoUser, cost int) (uint64, error) {
	u, err := users.GetByEmail(ctx, d.Email)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, err
	}
	hash, err := utils.HashPassword(DemoPassword, cost)
	if err != nil {
		return 0, err
	}
	u = model.User{Name: d.Name, Email: d.Email, PasswordHash: hash, Role: d.Role}
	if d.Phone != "" {
		u.Phone = &d.Phone
	}
	if d.University != "" {
		u.University = &d.University
	}
	if err := users.Create(ctx, &u); err != nil {
		return 0, err
	}
	log.Info().Str("email", u.Email).Uint64("id", u.ID).Msg("seeded user")
	return u.ID, nil
}

// insertListing writes one announcement with its images and services in a
// single transaction.
func insertListing(ctx context.Context, db *sql.DB, ownerID uint64, l listing) (id uint64, err error) {
	d := goqu.Dialect("mysql")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q, args, err := d.Insert("announcements").Rows(goqu.Record{
		"owner_id":      ownerID,
		"title":         l.Title,
		"description":   l.Description,
		"price":         l.Price,
		"district":      l.District,
		"latitude":      l.Lat,
		"longitude":     l.Lng,
		"bedrooms":      l.Bedrooms,
		"bathrooms":     l.Bathrooms,
		"state":         model.StateActive,
		"creation_date": time.Now().UTC().Truncate(time.Second),
	}).Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}
	r, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	lastID, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}
	id = uint64(lastID)

	if err := insertChildren(ctx, tx, d, "announcement_images", "url", id, l.Images); err != nil {
		return 0, err
	}
	if err := insertChildren(ctx, tx, d, "announcement_services", "service", id, l.Services); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	log.Info().Uint64("id", id).Str("title", l.Title).Msg("seeded announcement")
	return id, nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, d goqu.DialectWrapper, table, column string, annID uint64, values []string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]interface{}, len(values))
	for i, v := range values {
		rows[i] = goqu.Record{"announcement_id": annID, column: v}
	}
	q, args, err := d.Insert(table).Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, q, args...)
	return err
}
