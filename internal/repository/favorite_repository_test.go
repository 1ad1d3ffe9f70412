package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteRepo_Add(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs(uint64(2), uint64(10), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))

	f, err := repo.Add(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), f.ID)
	assert.Equal(t, uint64(10), f.AnnouncementID)
}

func TestFavoriteRepo_AddDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).WillReturnError(errDuplicate)

	_, err := repo.Add(context.Background(), 2, 10)
	assert.ErrorIs(t, err, ErrAlreadyFavorited)
}

func TestFavoriteRepo_AddMissingAnnouncement(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).WillReturnError(errNoParent)

	_, err := repo.Add(context.Background(), 2, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFavoriteRepo_Remove(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WithArgs(uint64(2), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Remove(context.Background(), 2, 10))
	assert.ErrorIs(t, repo.Remove(context.Background(), 2, 10), ErrNotFavorited)
}

func TestFavoriteRepo_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cols := []string{"id", "title", "description", "price", "district", "latitude", "longitude",
		"bedrooms", "bathrooms", "owner_id", "owner_name", "rating", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM favorites f")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(10, "Cuarto en Miraflores", "Luminoso", "800.00", "Miraflores", -12.12, -77.03, 2, 1, 1, "María", 4.5, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM `announcement_images`")).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_id", "url"}).AddRow(10, "https://img.test/1.jpg"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM `announcement_services`")).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_id", "service"}).AddRow(10, "wifi").AddRow(10, "lavanderia"))

	list, err := repo.ListByUser(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	fa := list[0]
	assert.Equal(t, "800.00", fa.Price)
	assert.True(t, fa.IsFavorite)
	assert.Equal(t, 2, fa.Stats.Bedrooms)
	assert.Equal(t, 4.5, fa.Stats.Rating)
	assert.Equal(t, []string{"https://img.test/1.jpg"}, fa.Images)
	assert.Equal(t, []string{"wifi", "lavanderia"}, fa.Services)
	assert.Equal(t, "María", fa.Owner.Name)
}

func TestFavoriteRepo_ListByUserEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM favorites f")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := repo.ListByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
