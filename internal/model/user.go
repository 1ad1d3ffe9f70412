package model

import "time"

// Role values accepted in the users.role column.
const (
	RoleStudent = "student"
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleStudent, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the server; the json tag
// hides it so the struct can be returned to clients directly.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name shown to the other party of a conversation.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – student, owner or admin.  Immutable after creation.
//  Phone        – optional contact phone, shared with students who reserve.
//  University   – optional, typically set for students.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`          // users.id
	Name         string    `json:"name"`        // users.name
	Email        string    `json:"email"`       // users.email
	PasswordHash string    `json:"-"`           // users.password_hash
	Role         string    `json:"role"`        // users.role
	Phone        *string   `json:"phone"`       // users.phone (nullable)
	University   *string   `json:"university"`  // users.university (nullable)
	CreatedAt    time.Time `json:"created_at"`  // users.created_at
}
