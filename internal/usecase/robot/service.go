// Package robot covers fleet administration, robot self-reports and the
// robot credential exchange.
package robot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robot-dispatch/internal/config"
	domainNode "robot-dispatch/internal/domain/node"
	domainOrder "robot-dispatch/internal/domain/order"
	domainRobot "robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/store"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/infrastructure/cache"
	"robot-dispatch/internal/infrastructure/device"
	"robot-dispatch/internal/lock"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StateStore is the live-state cache. RobotStateCache satisfies it.
type StateStore interface {
	Put(ctx context.Context, state *cache.RobotState) error
	Get(ctx context.Context, robotID uuid.UUID) (*cache.RobotState, error)
}

type Service struct {
	uow      store.UnitOfWork
	robots   domainRobot.Repository
	orders   domainOrder.Repository
	nodes    domainNode.Repository
	device   device.Transport
	state    StateStore
	locks    *lock.Keyed
	events   events.Emitter
	metrics  *metrics.DispatchMetrics
	defaults config.DispatchConfig
	jwt      config.JWTConfig
	now      func() time.Time
}

type Deps struct {
	UnitOfWork store.UnitOfWork
	Robots     domainRobot.Repository
	Orders     domainOrder.Repository
	Nodes      domainNode.Repository
	Device     device.Transport
	State      StateStore
	Locks      *lock.Keyed
	Events     events.Emitter
	Metrics    *metrics.DispatchMetrics
	Defaults   config.DispatchConfig
	JWT        config.JWTConfig
}

func NewService(d Deps) *Service {
	locks := d.Locks
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Service{
		uow:      d.UnitOfWork,
		robots:   d.Robots,
		orders:   d.Orders,
		nodes:    d.Nodes,
		device:   d.Device,
		state:    d.State,
		locks:    locks,
		events:   events.OrEmpty(d.Events),
		metrics:  d.Metrics,
		defaults: d.Defaults,
		jwt:      d.JWT,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register adds a robot to the fleet. New robots start fully charged and
// parked on the charger.
func (s *Service) Register(ctx context.Context, req *RegisterRobotRequest) (*common.RobotResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	if req.CurrentNodeID != nil {
		if _, err := s.nodes.GetByID(ctx, *req.CurrentNodeID); err != nil {
			return nil, common.NodeErr(err, *req.CurrentNodeID)
		}
	}

	hashed, err := utils.HashSecret(req.AccessKey)
	if err != nil {
		return nil, appErrors.Internal("Failed to hash access key", err)
	}

	r := &domainRobot.Robot{
		Name:                  utils.SanitizeString(req.Name),
		Model:                 utils.SanitizeString(req.Model),
		Kind:                  domainRobot.Kind(req.Kind),
		SerialNumber:          req.SerialNumber,
		AccessKeyHash:         hashed,
		Status:                domainRobot.StatusCharging,
		BatteryLevel:          100,
		BatteryCapacityJoules: orDefault(req.BatteryCapacityJoules, s.defaults.DefaultBatteryCapacityJ),
		EnergyPerMeterJoules:  orDefault(req.EnergyPerMeterJoules, s.defaults.DefaultEnergyPerMeterJ),
		IPAddress:             req.IPAddress,
		Port:                  req.Port,
		CurrentNodeID:         req.CurrentNodeID,
	}
	if r.IPAddress != "" && r.Port == 0 {
		r.Port = s.defaults.DefaultDeviceCommandPort
	}
	if r.BatteryCapacityJoules <= 0 || r.EnergyPerMeterJoules <= 0 {
		return nil, appErrors.Validation("Robot needs a positive battery capacity and consumption", nil)
	}

	if err := s.robots.Create(ctx, r); err != nil {
		if errors.Is(err, domainRobot.ErrRobotAlreadyExists) {
			return nil, appErrors.Conflict(fmt.Sprintf("Robot with serial number %s already exists", r.SerialNumber), err)
		}
		return nil, err
	}

	logger.Info("Robot registered",
		zap.String("robot_id", r.ID.String()),
		zap.String("serial_number", r.SerialNumber),
		zap.String("kind", string(r.Kind)),
		zap.String("event", "robot_registered"),
	)

	return common.ToRobotResponse(r), nil
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func (s *Service) Get(ctx context.Context, robotID uuid.UUID) (*common.RobotResponse, error) {
	r, err := s.robots.GetByID(ctx, robotID)
	if err != nil {
		return nil, common.RobotErr(err, robotID)
	}
	return common.ToRobotResponse(r), nil
}

func (s *Service) List(ctx context.Context, q *ListRobotsQuery) ([]*common.RobotResponse, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return nil, appErrors.Validation("Invalid query", err)
	}

	filter := &domainRobot.Filter{}
	if q.Status != "" {
		status := domainRobot.Status(q.Status)
		filter.Status = &status
	}

	robots, err := s.robots.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]*common.RobotResponse, len(robots))
	for i, r := range robots {
		resp[i] = common.ToRobotResponse(r)
	}
	return resp, nil
}

// SetStatus is the administrative override. Any status is accepted; an
// override that leaves the Delivering flag out of step with the robot's
// active orders is applied but logged.
func (s *Service) SetStatus(ctx context.Context, robotID uuid.UUID, req *SetStatusRequest) (*common.RobotResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
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

		if err := r.SetStatus(domainRobot.Status(req.Status), s.now()); err != nil {
			return err
		}
		if req.BatteryLevel != nil {
			r.BatteryLevel = *req.BatteryLevel
		}

		active, err := repos.Orders.CountActiveByRobot(ctx, robotID)
		if err != nil {
			return err
		}
		if (r.Status == domainRobot.StatusDelivering) != (active > 0) {
			logger.Warn("Administrative status breaks the delivering invariant",
				zap.String("robot_id", robotID.String()),
				zap.String("status", string(r.Status)),
				zap.Int64("active_orders", active),
			)
		}

		if err := repos.Robots.Update(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Robot status set",
		zap.String("robot_id", robotID.String()),
		zap.String("old_status", string(prev)),
		zap.String("new_status", string(updated.Status)),
		zap.String("event", "robot_status_set"),
	)
	s.cacheState(ctx, updated)
	s.emitStatusChange(updated, prev)

	return common.ToRobotResponse(updated), nil
}

// Authenticate exchanges a serial number and access key for a robot token.
func (s *Service) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	r, err := s.robots.GetBySerialNumber(ctx, req.SerialNumber)
	if err != nil {
		if errors.Is(err, domainRobot.ErrRobotNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid robot credentials", nil)
		}
		return nil, err
	}
	if !utils.CheckSecret(r.AccessKeyHash, req.AccessKey) {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid robot credentials", nil)
	}

	token, err := utils.GenerateRobotToken(r.ID, s.jwt.Secret, s.jwt.ExpiryHours)
	if err != nil {
		return nil, appErrors.Internal("Failed to issue token", err)
	}

	logger.Info("Robot authenticated",
		zap.String("robot_id", r.ID.String()),
		zap.String("event", "robot_authenticated"),
	)

	return &AuthResponse{
		Robot:       common.ToRobotResponse(r),
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *Service) emitStatusChange(r *domainRobot.Robot, prev domainRobot.Status) {
	if r.Status == prev {
		return
	}
	s.events.Emit(events.Event{
		Type: events.RobotStatusChanged,
		Key:  r.ID.String(),
		Payload: events.RobotStatusChangedEvent{
			RobotID:      r.ID,
			OldStatus:    string(prev),
			NewStatus:    string(r.Status),
			BatteryLevel: r.BatteryLevel,
		},
	})
}
