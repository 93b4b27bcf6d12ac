// Package store defines the unit of work the use cases run their
// state-changing operations in.
package store

import (
	"context"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/user"
)

// Repositories are bound to one transaction when handed out by a UnitOfWork.
type Repositories struct {
	Orders order.Repository
	Robots robot.Repository
	Nodes  node.Repository
	Users  user.Repository
}

// UnitOfWork runs fn in a single transaction. The transaction commits when
// fn returns nil and rolls back on error or panic.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
