package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderModel represents the database model for Order
type OrderModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name           string     `gorm:"type:varchar(255);not null"`
	Description    string     `gorm:"type:text"`
	WeightKg       float64    `gorm:"not null;check:weight_kg > 0"`
	DeliveryPrice  float64    `gorm:"type:decimal(12,2);not null"`
	ProductPrice   float64    `gorm:"type:decimal(12,2);not null"`
	IsProductPaid  bool       `gorm:"not null"`
	IsDeliveryPaid bool       `gorm:"not null"`
	Payer          string     `gorm:"type:varchar(16);not null"`
	Status         string     `gorm:"type:varchar(32);not null;index:idx_orders_robot_status,priority:2"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	RecipientID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	PickupNodeID   uuid.UUID  `gorm:"type:uuid;not null"`
	DropoffNodeID  uuid.UUID  `gorm:"type:uuid;not null"`
	RobotID        *uuid.UUID `gorm:"type:uuid;index:idx_orders_robot_status,priority:1"`
	LastPhase      *string    `gorm:"type:varchar(64)"`
	LastPhaseAt    *time.Time
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null"`
	CompletedAt    *time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}
