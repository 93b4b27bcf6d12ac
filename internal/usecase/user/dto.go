package user

import (
	"time"

	domainUser "robot-dispatch/internal/domain/user"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username        string     `json:"username" validate:"required,min=3,max=100"`
	Email           string     `json:"email" validate:"required,email"`
	Password        string     `json:"password" validate:"required,min=8"`
	ConfirmPassword string     `json:"confirm_password" validate:"required,eqfield=Password"`
	FullName        string     `json:"full_name" validate:"required,min=2,max=255"`
	PhoneNumber     *string    `json:"phone_number" validate:"omitempty,max=32"`
	Role            string     `json:"role" validate:"required,user_role"`
	PersonalNodeID  *uuid.UUID `json:"personal_node_id"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FullName       *string    `json:"full_name" validate:"omitempty,min=2,max=255"`
	PhoneNumber    *string    `json:"phone_number" validate:"omitempty,max=32"`
	PersonalNodeID *uuid.UUID `json:"personal_node_id"`
}

type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	Role           string     `json:"role"`
	PersonalNodeID *uuid.UUID `json:"personal_node_id,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
}

type AuthResponse struct {
	User        *UserResponse `json:"user"`
	AccessToken string        `json:"access_token"`
	ExpiresAt   int64         `json:"expires_at"`
}

func ToUserResponse(u *domainUser.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		PhoneNumber:    u.PhoneNumber,
		Role:           u.Role,
		PersonalNodeID: u.PersonalNodeID,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
	}
}
