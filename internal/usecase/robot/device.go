package robot

import (
	"context"

	domainRobot "robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/infrastructure/device"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	opPing          = "ping"
	opStatus        = "status"
	opEmergencyStop = "emergency_stop"
)

func (s *Service) Ping(ctx context.Context, robotID uuid.UUID) (*DeviceResult, error) {
	return s.command(ctx, robotID, opPing, device.Transport.Ping)
}

// DeviceStatus asks the robot directly instead of reading the stored row.
func (s *Service) DeviceStatus(ctx context.Context, robotID uuid.UUID) (*DeviceResult, error) {
	return s.command(ctx, robotID, opStatus, device.Transport.GetStatus)
}

func (s *Service) EmergencyStop(ctx context.Context, robotID uuid.UUID) (*DeviceResult, error) {
	res, err := s.command(ctx, robotID, opEmergencyStop, device.Transport.EmergencyStop)
	if err == nil {
		logger.Warn("Emergency stop sent",
			zap.String("robot_id", robotID.String()),
			zap.String("event", "robot_emergency_stop"),
		)
	}
	return res, err
}

func (s *Service) command(
	ctx context.Context,
	robotID uuid.UUID,
	op string,
	call func(device.Transport, context.Context, device.Endpoint) (*device.Reply, error),
) (*DeviceResult, error) {
	if s.device == nil {
		return nil, appErrors.Device("Device transport is not configured", nil)
	}
	r, err := s.robots.GetByID(ctx, robotID)
	if err != nil {
		return nil, common.RobotErr(err, robotID)
	}
	if !r.HasDeviceEndpoint() {
		return nil, appErrors.Validation("Robot has no command endpoint", nil)
	}

	reply, err := call(s.device, ctx, device.Endpoint{Host: r.IPAddress, Port: r.Port})
	if err != nil {
		s.deviceFailed(r, op, err)
		return nil, err
	}
	s.metrics.IncDeviceCommand(op, metrics.OutcomeSuccess)

	return &DeviceResult{
		RobotID:      r.ID,
		Operation:    op,
		Message:      reply.Message,
		Status:       reply.Status,
		BatteryLevel: reply.CurrentBatteryLevel,
	}, nil
}

func (s *Service) deviceFailed(r *domainRobot.Robot, op string, err error) {
	s.metrics.IncDeviceCommand(op, metrics.OutcomeFailure)
	logger.Warn("Device command failed",
		zap.String("robot_id", r.ID.String()),
		zap.String("operation", op),
		zap.Error(err),
		zap.String("event", "device_command_failed"),
	)
	s.events.Emit(events.Event{
		Type: events.DeviceCommandFailed,
		Key:  r.ID.String(),
		Payload: events.DeviceCommandFailedEvent{
			RobotID:   r.ID,
			Operation: op,
			Error:     err.Error(),
		},
	})
}
