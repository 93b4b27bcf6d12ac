// Package dispatch binds orders to robots and unwinds them on cancellation.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/store"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/infrastructure/device"
	"robot-dispatch/internal/lock"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements assignment, execution and cancellation
type Service struct {
	uow     store.UnitOfWork
	orders  order.Repository
	robots  robot.Repository
	nodes   node.Repository
	device  device.Transport
	locks   *lock.Keyed
	state   common.StateWriter
	events  events.Emitter
	metrics *metrics.DispatchMetrics
	now     func() time.Time
}

// Deps groups the collaborators of the dispatch service. Device, State,
// Events and Metrics may be nil.
type Deps struct {
	UnitOfWork store.UnitOfWork
	Orders     order.Repository
	Robots     robot.Repository
	Nodes      node.Repository
	Device     device.Transport
	Locks      *lock.Keyed
	State      common.StateWriter
	Events     events.Emitter
	Metrics    *metrics.DispatchMetrics
}

func NewService(d Deps) *Service {
	locks := d.Locks
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Service{
		uow:     d.UnitOfWork,
		orders:  d.Orders,
		robots:  d.Robots,
		nodes:   d.Nodes,
		device:  d.Device,
		locks:   locks,
		state:   d.State,
		events:  events.OrEmpty(d.Events),
		metrics: d.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// assignment is the committed outcome of one assign call.
type assignment struct {
	order       *order.Order
	robot       *robot.Robot
	prevOrder   order.Status
	prevRobot   robot.Status
	alreadyDone bool
}

// Assign binds orderID to robotID, then pushes the delivery command to the
// robot. A failed push is reported in the response and never undoes the
// assignment.
func (s *Service) Assign(ctx context.Context, orderID, robotID uuid.UUID) (*AssignResponse, error) {
	a, err := s.assign(ctx, orderID, robotID)
	if err != nil {
		s.metrics.IncAssignment(string(appErrors.CodeOf(err)))
		return nil, err
	}

	resp := &AssignResponse{
		Order:           common.ToOrderResponse(a.order),
		Robot:           common.ToRobotResponse(a.robot),
		AlreadyAssigned: a.alreadyDone,
	}
	if a.alreadyDone {
		s.metrics.IncAssignment(metrics.OutcomeNoop)
		return resp, nil
	}

	s.metrics.IncAssignment(metrics.OutcomeSuccess)
	s.publishAssignment(a)
	common.CacheRobotState(ctx, s.state, a.robot)
	resp.DeviceNotified, resp.DeviceError = s.notifyDevice(ctx, a.order, a.robot)

	return resp, nil
}

func (s *Service) assign(ctx context.Context, orderID, robotID uuid.UUID) (*assignment, error) {
	unlock := s.locks.Lock(robotID)
	defer unlock()

	var out assignment
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		// rows are locked robot first, order second
		r, robotErr := repos.Robots.GetForUpdate(ctx, robotID)
		if robotErr != nil {
			robotErr = common.RobotErr(robotErr, robotID)
		}
		o, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return common.OrderErr(err, orderID)
		}
		if robotErr != nil {
			return robotErr
		}

		out.prevOrder, out.prevRobot = o.Status, r.Status

		// Retried request for a binding that already landed
		if o.IsAssignedTo(robotID) && o.Status == order.StatusProcessing && r.Status == robot.StatusDelivering {
			out.order, out.robot, out.alreadyDone = o, r, true
			return nil
		}

		if err := r.CheckDispatchable(); err != nil {
			return err
		}
		if o.Status != order.StatusPending && o.Status != order.StatusProcessing {
			return appErrors.InvalidOrderState(o.ID, string(o.Status), "assigned")
		}
		if o.RobotID != nil && *o.RobotID != robotID {
			return appErrors.Conflict(fmt.Sprintf("order %s is already assigned to robot %s", o.ID, *o.RobotID), nil)
		}

		now := s.now()
		o.RobotID = &robotID
		if o.Status == order.StatusPending {
			if err := o.TransitionTo(order.StatusProcessing, now); err != nil {
				return err
			}
		}
		o.UpdatedAt = now

		if err := r.StartDelivering(now); err != nil {
			return err
		}
		pickup := o.PickupNodeID
		dropoff := o.DropoffNodeID
		r.CurrentNodeID = &pickup
		r.TargetNodeID = &dropoff
		r.CurrentLatitude, r.CurrentLongitude = nil, nil

		if err := repos.Robots.Update(ctx, r); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}

		out.order, out.robot = o, r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !out.alreadyDone {
		logger.Info("Order assigned",
			zap.String("order_id", orderID.String()),
			zap.String("robot_id", robotID.String()),
			zap.String("event", "order_assigned"),
		)
	}
	return &out, nil
}

func (s *Service) publishAssignment(a *assignment) {
	s.events.Emit(events.Event{
		Type:    events.OrderAssigned,
		Key:     a.order.ID.String(),
		Payload: events.OrderAssignedEvent{OrderID: a.order.ID, RobotID: a.robot.ID, Status: string(a.order.Status)},
	})
	if a.prevOrder != a.order.Status {
		s.events.Emit(events.Event{
			Type: events.OrderStatusChanged,
			Key:  a.order.ID.String(),
			Payload: events.OrderStatusChangedEvent{
				OrderID:   a.order.ID,
				RobotID:   a.order.RobotID,
				OldStatus: string(a.prevOrder),
				NewStatus: string(a.order.Status),
				Detail:    "assigned",
			},
		})
	}
	s.events.Emit(events.Event{
		Type: events.RobotStatusChanged,
		Key:  a.robot.ID.String(),
		Payload: events.RobotStatusChangedEvent{
			RobotID:      a.robot.ID,
			OldStatus:    string(a.prevRobot),
			NewStatus:    string(a.robot.Status),
			BatteryLevel: a.robot.BatteryLevel,
		},
	})
}

// notifyDevice pushes the delivery command. It returns whether the robot
// acknowledged, and the failure otherwise.
func (s *Service) notifyDevice(ctx context.Context, o *order.Order, r *robot.Robot) (bool, string) {
	if s.device == nil || !r.HasDeviceEndpoint() {
		return false, ""
	}

	nodes := common.NewNodeLookup(s.nodes)
	pickup, err := nodes.Get(ctx, o.PickupNodeID)
	if err != nil {
		return false, err.Error()
	}
	dropoff, err := nodes.Get(ctx, o.DropoffNodeID)
	if err != nil {
		return false, err.Error()
	}

	cmd := device.DeliveryCommand{
		OrderID:  o.ID,
		Action:   device.ActionDeliver,
		Pickup:   toWaypoint(pickup),
		Dropoff:  toWaypoint(dropoff),
		Weight:   o.WeightKg,
		IssuedAt: s.now(),
	}

	target := device.Endpoint{Host: r.IPAddress, Port: r.Port}
	if _, err := s.device.SendDeliveryCommand(ctx, target, cmd); err != nil {
		s.metrics.IncDeviceCommand("delivery", metrics.OutcomeFailure)
		logger.Warn("Delivery command failed",
			zap.String("order_id", o.ID.String()),
			zap.String("robot_id", r.ID.String()),
			zap.Error(err),
		)
		orderID := o.ID
		s.events.Emit(events.Event{
			Type: events.DeviceCommandFailed,
			Key:  r.ID.String(),
			Payload: events.DeviceCommandFailedEvent{
				RobotID:   r.ID,
				OrderID:   &orderID,
				Operation: "delivery",
				Error:     err.Error(),
			},
		})
		return false, err.Error()
	}

	s.metrics.IncDeviceCommand("delivery", metrics.OutcomeSuccess)
	return true, ""
}

func toWaypoint(n *node.Node) device.Waypoint {
	return device.Waypoint{NodeID: n.ID, Name: n.Name, Latitude: n.Latitude, Longitude: n.Longitude}
}
