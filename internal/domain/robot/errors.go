package robot

import "errors"

var (
	ErrRobotNotFound      = errors.New("robot not found")
	ErrRobotAlreadyExists = errors.New("robot with this serial number already exists")
)
