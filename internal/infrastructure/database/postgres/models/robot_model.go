package models

import (
	"time"

	"github.com/google/uuid"
)

// RobotModel represents the database model for Robot
type RobotModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name                  string     `gorm:"type:varchar(255);not null"`
	Model                 string     `gorm:"type:varchar(255)"`
	Kind                  string     `gorm:"type:varchar(32);not null"`
	SerialNumber          string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	AccessKeyHash         string     `gorm:"type:varchar(255);not null"`
	Status                string     `gorm:"type:varchar(32);not null;index"`
	BatteryLevel          float64    `gorm:"not null;check:battery_level >= 0 AND battery_level <= 100"`
	BatteryCapacityJoules float64    `gorm:"not null"`
	EnergyPerMeterJoules  float64    `gorm:"not null"`
	IPAddress             string     `gorm:"type:varchar(255)"`
	Port                  int        `gorm:"type:integer"`
	CurrentNodeID         *uuid.UUID `gorm:"type:uuid"`
	CurrentLatitude       *float64
	CurrentLongitude      *float64
	TargetNodeID          *uuid.UUID `gorm:"type:uuid"`
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             time.Time  `gorm:"not null"`
}

func (RobotModel) TableName() string {
	return "robots"
}
