package robot

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for robot repository operations
type Repository interface {
	Create(ctx context.Context, robot *Robot) error
	GetByID(ctx context.Context, robotID uuid.UUID) (*Robot, error)
	// GetForUpdate reads the robot holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, robotID uuid.UUID) (*Robot, error)
	GetBySerialNumber(ctx context.Context, serial string) (*Robot, error)
	Update(ctx context.Context, robot *Robot) error
	List(ctx context.Context, filter *Filter) ([]*Robot, error)
}

// Filter represents filtering options for listing robots
type Filter struct {
	Status     *Status
	MinBattery *float64
}
