// Package repository implements MySQL persistence for users,
// announcements, favorites, reservations, messages and reviews.
//
// Repositories return the sentinel errors below so the service layer can
// distinguish failure scenarios without inspecting driver errors.  Unique
// keys in the schema are the source of truth for every "already exists"
// condition; repositories detect them from MySQL error 1062 instead of
// looking before inserting.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyFavorited is returned when the (user, announcement) favorite
// pair already exists.
var ErrAlreadyFavorited = errors.New("already favorited")

// ErrNotFavorited is returned when removing a favorite that does not exist.
var ErrNotFavorited = errors.New("not favorited")

// ErrDuplicateReview is returned when a user reviews the same
// announcement twice.
var ErrDuplicateReview = errors.New("review already exists")

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicateKey reports whether err is a unique-key violation.
func isDuplicateKey(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

// isMissingParent reports whether err is a foreign-key violation on insert.
func isMissingParent(err error) bool { return mysqlErrNumber(err) == mysqlNoReferencedRow }
