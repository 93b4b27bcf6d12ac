package models

import (
	"time"

	"github.com/google/uuid"
)

// NodeModel represents the database model for Node
type NodeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Latitude  float64   `gorm:"not null"`
	Longitude float64   `gorm:"not null"`
	Type      string    `gorm:"type:varchar(32);not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (NodeModel) TableName() string {
	return "nodes"
}
