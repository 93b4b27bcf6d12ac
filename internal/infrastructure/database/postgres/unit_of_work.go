package postgres

import (
	"context"

	"robot-dispatch/internal/domain/store"

	"gorm.io/gorm"
)

// UnitOfWork hands out repositories bound to a single transaction.
type UnitOfWork struct {
	db *DB
}

func NewUnitOfWork(db *DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	return u.db.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(ctx, Repositories(&DB{DB: tx}))
	})
}

// Repositories builds the full repository set over db.
func Repositories(db *DB) store.Repositories {
	return store.Repositories{
		Orders: NewOrderRepository(db),
		Robots: NewRobotRepository(db),
		Nodes:  NewNodeRepository(db),
		Users:  NewUserRepository(db),
	}
}
