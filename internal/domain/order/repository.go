package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order repository operations
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
	// GetForUpdate reads the order holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, orderID uuid.UUID) (*Order, error)
	Update(ctx context.Context, order *Order) error
	List(ctx context.Context, filter *Filter) ([]*Order, int64, error)
	// ListActiveByRobot returns Processing and EnRoute orders bound to robotID, oldest first.
	ListActiveByRobot(ctx context.Context, robotID uuid.UUID) ([]*Order, error)
	CountActiveByRobot(ctx context.Context, robotID uuid.UUID) (int64, error)
}

// Filter represents filtering options for listing orders
type Filter struct {
	Status      *Status
	SenderID    *uuid.UUID
	RecipientID *uuid.UUID
	RobotID     *uuid.UUID

	// Pagination
	Page     int
	PageSize int
}
