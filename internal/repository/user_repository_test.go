package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomlock/roomlock-server/internal/model"
)

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Juan", "juan@uni.edu.pe", "hash", model.RoleStudent, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &model.User{Name: "Juan", Email: "juan@uni.edu.pe", PasswordHash: "hash", Role: model.RoleStudent}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(7), u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(errDuplicate)

	err := repo.Create(context.Background(), &model.User{Name: "Juan", Email: "juan@uni.edu.pe", Role: model.RoleStudent})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	cols := []string{"id", "name", "email", "password_hash", "role", "phone", "university", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("owner@test.com").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "María", "owner@test.com", "hash", "owner", "999111222", nil, created))

	u, err := repo.GetByEmail(context.Background(), "  Owner@Test.com ")
	require.NoError(t, err)
	assert.Equal(t, "María", u.Name)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "999111222", *u.Phone)
	assert.Nil(t, u.University)
	assert.Equal(t, created, u.CreatedAt)
}

func TestUserRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
