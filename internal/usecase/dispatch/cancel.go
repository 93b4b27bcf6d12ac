package dispatch

import (
	"context"

	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/store"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cancel lets the sender withdraw an order that has not left pickup yet. A
// bound robot is returned to Idle in the same transaction once it holds no
// other active order.
func (s *Service) Cancel(ctx context.Context, orderID, senderID uuid.UUID) (*CancelResponse, error) {
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, common.OrderErr(err, orderID)
	}
	if current.SenderID != senderID {
		return nil, appErrors.Forbidden("only the sender can cancel this order")
	}

	if current.RobotID != nil {
		unlock := s.locks.Lock(*current.RobotID)
		defer unlock()
	}

	var (
		cancelled *order.Order
		released  *robot.Robot
		prevOrder order.Status
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var r *robot.Robot
		if current.RobotID != nil {
			var err error
			r, err = repos.Robots.GetForUpdate(ctx, *current.RobotID)
			if err != nil {
				return common.RobotErr(err, *current.RobotID)
			}
		}

		o, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return common.OrderErr(err, orderID)
		}
		if !sameRobot(o.RobotID, current.RobotID) {
			return appErrors.Conflict("order was reassigned while cancelling, retry", nil)
		}
		if o.Status != order.StatusPending && o.Status != order.StatusProcessing {
			return appErrors.InvalidOrderState(o.ID, string(o.Status), "cancelled")
		}

		now := s.now()
		prevOrder = o.Status
		if err := o.TransitionTo(order.StatusCancelled, now); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		cancelled = o

		if r == nil {
			return nil
		}
		active, err := repos.Orders.CountActiveByRobot(ctx, r.ID)
		if err != nil {
			return err
		}
		if r.Release(active, now) {
			r.TargetNodeID = nil
			if err := repos.Robots.Update(ctx, r); err != nil {
				return err
			}
			released = r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("sender_id", senderID.String()),
		zap.Bool("robot_released", released != nil),
		zap.String("event", "order_cancelled"),
	)

	s.events.Emit(events.Event{
		Type:    events.OrderCancelled,
		Key:     cancelled.ID.String(),
		Payload: events.OrderCancelledEvent{OrderID: cancelled.ID, RobotID: cancelled.RobotID, SenderID: senderID},
	})
	s.events.Emit(events.Event{
		Type: events.OrderStatusChanged,
		Key:  cancelled.ID.String(),
		Payload: events.OrderStatusChangedEvent{
			OrderID:   cancelled.ID,
			RobotID:   cancelled.RobotID,
			OldStatus: string(prevOrder),
			NewStatus: string(cancelled.Status),
			Detail:    "cancelled by sender",
		},
	})
	if released != nil {
		common.CacheRobotState(ctx, s.state, released)
		s.events.Emit(events.Event{
			Type: events.RobotStatusChanged,
			Key:  released.ID.String(),
			Payload: events.RobotStatusChangedEvent{
				RobotID:      released.ID,
				OldStatus:    string(robot.StatusDelivering),
				NewStatus:    string(released.Status),
				BatteryLevel: released.BatteryLevel,
			},
		})
	}

	return &CancelResponse{Order: common.ToOrderResponse(cancelled), RobotReleased: released != nil}, nil
}

func sameRobot(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
