package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	// RoleRobot is carried only by robot tokens; no user row has it.
	RoleRobot = "robot"
)

// User represents a user entity in the domain
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	PasswordHashed string
	FullName       string
	PhoneNumber    *string
	Role           string
	PersonalNodeID *uuid.UUID
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
