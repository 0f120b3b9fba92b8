package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ReservedUsername can never be registered: it addresses the caller's own
// profile in the /users/me route.
const ReservedUsername = "me"

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uint       `json:"-" gorm:"primaryKey"`
	Username  string     `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email     string     `json:"email" gorm:"size:254;uniqueIndex;not null"`
	FirstName string     `json:"first_name" gorm:"size:150"`
	LastName  string     `json:"last_name" gorm:"size:150"`
	Bio       string     `json:"bio" gorm:"size:4000"`
	Role      Role       `json:"role" gorm:"size:32;not null;default:user"`
	LastLogin *time.Time `json:"-"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}
