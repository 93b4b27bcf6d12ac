package robot

import (
	"context"
	"errors"

	domainRobot "robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/store"
	"robot-dispatch/internal/geo"
	"robot-dispatch/internal/infrastructure/cache"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdateStatus applies a robot's report about itself. The reported status
// must agree with the robot's active orders.
func (s *Service) UpdateStatus(ctx context.Context, robotID uuid.UUID, req *StatusReport) (*common.RobotResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, appErrors.Validation("Latitude and longitude must be sent together", nil)
	}
	if req.Latitude != nil {
		if err := geo.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
			return nil, appErrors.Validation("Invalid coordinates", err)
		}
	}

	unlock := s.locks.Lock(robotID)
	defer unlock()

	var (
		updated *domainRobot.Robot
		prev    domainRobot.Status
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		r, err := repos.Robots.GetForUpdate(ctx, robotID)
		if err != nil {
			return common.RobotErr(err, robotID)
		}
		prev = r.Status

		for _, id := range []*uuid.UUID{req.CurrentNodeID, req.TargetNodeID} {
			if id == nil {
				continue
			}
			if _, err := repos.Nodes.GetByID(ctx, *id); err != nil {
				return common.NodeErr(err, *id)
			}
		}

		active, err := repos.Orders.CountActiveByRobot(ctx, robotID)
		if err != nil {
			return err
		}
		if _, err := r.ReportStatus(domainRobot.Status(req.Status), active, s.now()); err != nil {
			return err
		}

		r.BatteryLevel = req.BatteryLevel
		if req.Latitude != nil {
			r.SetLivePosition(*req.Latitude, *req.Longitude)
		}
		if req.CurrentNodeID != nil {
			r.CurrentNodeID = req.CurrentNodeID
		}
		if req.TargetNodeID != nil {
			r.TargetNodeID = req.TargetNodeID
		}
		r.UpdatedAt = s.now()

		if err := repos.Robots.Update(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Robot status reported",
		zap.String("robot_id", robotID.String()),
		zap.String("status", string(updated.Status)),
		zap.Float64("battery_level", updated.BatteryLevel),
		zap.String("event", "robot_status_updated"),
	)

	s.cacheState(ctx, updated)
	s.emitStatusChange(updated, prev)

	return common.ToRobotResponse(updated), nil
}

func (s *Service) cacheState(ctx context.Context, r *domainRobot.Robot) {
	if s.state == nil {
		return
	}
	common.CacheRobotState(ctx, s.state, r)
}

// Live returns the last cached snapshot for the robot.
func (s *Service) Live(ctx context.Context, robotID uuid.UUID) (*LiveState, error) {
	if s.state == nil {
		return nil, appErrors.NotFound("robot live state", robotID)
	}

	st, err := s.state.Get(ctx, robotID)
	if err != nil {
		if errors.Is(err, cache.ErrStateNotFound) {
			return nil, appErrors.NotFound("robot live state", robotID)
		}
		return nil, err
	}

	return &LiveState{
		RobotID:       st.RobotID,
		Status:        st.Status,
		BatteryLevel:  st.BatteryLevel,
		Latitude:      st.Latitude,
		Longitude:     st.Longitude,
		CurrentNodeID: st.CurrentNodeID,
		TargetNodeID:  st.TargetNodeID,
		UpdatedAt:     st.UpdatedAt,
	}, nil
}
