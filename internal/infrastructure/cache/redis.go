// Package cache keeps the live robot state in redis so telemetry reads do
// not hit postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"robot-dispatch/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace     = "dispatch"
	robotStatePrefix = "robot_state"
	defaultStateTTL  = 10 * time.Minute
)

var ErrStateNotFound = errors.New("robot state not cached")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RobotState is the last telemetry snapshot a robot reported.
type RobotState struct {
	RobotID       uuid.UUID  `json:"robot_id"`
	Status        string     `json:"status"`
	BatteryLevel  float64    `json:"battery_level"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	CurrentNodeID *uuid.UUID `json:"current_node_id,omitempty"`
	TargetNodeID  *uuid.UUID `json:"target_node_id,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type RobotStateCache struct {
	store cmdable
	raw   *redis.Client
	ttl   time.Duration
}

// New connects to redis and verifies it answers.
func New(ctx context.Context, cfg config.RedisConfig) (*RobotStateCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	raw := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	c := newWithStore(raw, cfg.StateTTL)
	c.raw = raw
	return c, nil
}

func newWithStore(store cmdable, ttl time.Duration) *RobotStateCache {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &RobotStateCache{store: store, ttl: ttl}
}

func (c *RobotStateCache) key(robotID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", keyNamespace, robotStatePrefix, robotID)
}

func (c *RobotStateCache) Put(ctx context.Context, state *RobotState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal robot state: %w", err)
	}
	if err := c.store.Set(ctx, c.key(state.RobotID), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache robot state: %w", err)
	}
	return nil
}

func (c *RobotStateCache) Get(ctx context.Context, robotID uuid.UUID) (*RobotState, error) {
	raw, err := c.store.Get(ctx, c.key(robotID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read robot state: %w", err)
	}

	var state RobotState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode robot state: %w", err)
	}
	return &state, nil
}

func (c *RobotStateCache) Delete(ctx context.Context, robotID uuid.UUID) error {
	return c.store.Del(ctx, c.key(robotID)).Err()
}

func (c *RobotStateCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

func (c *RobotStateCache) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
