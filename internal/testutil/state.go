package testutil

import (
	"context"
	"sync"

	"robot-dispatch/internal/infrastructure/cache"

	"github.com/google/uuid"
)

// StateCache is an in-memory stand-in for the redis live-state cache.
type StateCache struct {
	mu     sync.Mutex
	states map[uuid.UUID]cache.RobotState
}

func NewStateCache() *StateCache {
	return &StateCache{states: make(map[uuid.UUID]cache.RobotState)}
}

func (c *StateCache) Put(_ context.Context, st *cache.RobotState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[st.RobotID] = *st
	return nil
}

func (c *StateCache) Get(_ context.Context, id uuid.UUID) (*cache.RobotState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[id]
	if !ok {
		return nil, cache.ErrStateNotFound
	}
	return &st, nil
}
