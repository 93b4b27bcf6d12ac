package node

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for node repository operations
type Repository interface {
	Create(ctx context.Context, node *Node) error
	GetByID(ctx context.Context, nodeID uuid.UUID) (*Node, error)
	GetByName(ctx context.Context, name string) (*Node, error)
	Update(ctx context.Context, node *Node) error
	List(ctx context.Context, nodeType *Type) ([]*Node, error)
}
