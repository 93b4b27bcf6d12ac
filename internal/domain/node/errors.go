package node

import "errors"

var (
	ErrNodeNotFound = errors.New("node not found")
)
