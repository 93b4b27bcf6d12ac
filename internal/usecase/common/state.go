package common

import (
	"context"

	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/infrastructure/cache"
	"robot-dispatch/internal/logger"

	"go.uber.org/zap"
)

// StateWriter is the write side of the live robot state cache.
type StateWriter interface {
	Put(ctx context.Context, state *cache.RobotState) error
}

// CacheRobotState refreshes the live snapshot of r after a commit. The
// database row stays the source of truth so a cache failure is only logged.
func CacheRobotState(ctx context.Context, w StateWriter, r *robot.Robot) {
	if w == nil || r == nil {
		return
	}
	err := w.Put(ctx, &cache.RobotState{
		RobotID:       r.ID,
		Status:        string(r.Status),
		BatteryLevel:  r.BatteryLevel,
		Latitude:      r.CurrentLatitude,
		Longitude:     r.CurrentLongitude,
		CurrentNodeID: r.CurrentNodeID,
		TargetNodeID:  r.TargetNodeID,
		UpdatedAt:     r.UpdatedAt,
	})
	if err != nil {
		logger.Warn("Failed to cache robot state",
			zap.String("robot_id", r.ID.String()),
			zap.Error(err),
		)
	}
}
