// Package common holds helpers shared by the use case packages.
package common

import (
	"errors"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/user"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
)

// OrderErr turns a repository miss into NOT_FOUND naming the order.
func OrderErr(err error, id uuid.UUID) error {
	if errors.Is(err, order.ErrOrderNotFound) {
		return appErrors.NotFound("order", id)
	}
	return err
}

func RobotErr(err error, id uuid.UUID) error {
	if errors.Is(err, robot.ErrRobotNotFound) {
		return appErrors.NotFound("robot", id)
	}
	return err
}

func NodeErr(err error, id uuid.UUID) error {
	if errors.Is(err, node.ErrNodeNotFound) {
		return appErrors.NotFound("node", id)
	}
	return err
}

func UserErr(err error, id uuid.UUID) error {
	if errors.Is(err, user.ErrUserNotFound) {
		return appErrors.NotFound("user", id)
	}
	return err
}
