package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username       string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email          string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHashed string     `gorm:"type:varchar(255);not null"`
	FullName       string     `gorm:"type:varchar(255);not null"`
	PhoneNumber    *string    `gorm:"type:varchar(20)"`
	Role           string     `gorm:"type:varchar(50);not null"`
	PersonalNodeID *uuid.UUID `gorm:"type:uuid"`
	IsActive       bool       `gorm:"not null"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}
