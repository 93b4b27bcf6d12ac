// Package fleet serves the robot-facing side of dispatch: the assignment
// queue, order acceptance and phase reports.
package fleet

import (
	"context"
	"fmt"
	"time"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/store"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/geo"
	"robot-dispatch/internal/lock"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	uow     store.UnitOfWork
	orders  order.Repository
	robots  robot.Repository
	nodes   node.Repository
	locks   *lock.Keyed
	state   common.StateWriter
	events  events.Emitter
	metrics *metrics.DispatchMetrics
	now     func() time.Time
}

// Deps groups the collaborators; Locks must be the instance the dispatch
// service uses so both serialise on the same robot.
type Deps struct {
	UnitOfWork store.UnitOfWork
	Orders     order.Repository
	Robots     robot.Repository
	Nodes      node.Repository
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
		locks:   locks,
		state:   d.State,
		events:  events.OrEmpty(d.Events),
		metrics: d.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListMyOrders projects the robot's active orders with a pickup-then-dropoff
// route and the estimated battery each leg costs. It never writes.
func (s *Service) ListMyOrders(ctx context.Context, robotID uuid.UUID) (*AssignmentQueue, error) {
	r, err := s.robots.GetByID(ctx, robotID)
	if err != nil {
		return nil, common.RobotErr(err, robotID)
	}

	orders, err := s.orders.ListActiveByRobot(ctx, robotID)
	if err != nil {
		return nil, err
	}

	queue := &AssignmentQueue{
		RobotID:      r.ID,
		BatteryLevel: r.BatteryLevel,
		Orders:       make([]*OrderAssignment, 0, len(orders)),
	}

	nodes := common.NewNodeLookup(s.nodes)
	var totalBattery float64
	for _, o := range orders {
		pickup, err := nodes.Get(ctx, o.PickupNodeID)
		if err != nil {
			return nil, err
		}
		dropoff, err := nodes.Get(ctx, o.DropoffNodeID)
		if err != nil {
			return nil, err
		}

		dist := geo.Distance(pickup.Point(), dropoff.Point())
		battery, err := geo.BatteryUsagePercent(r.EnergyProfile(), dist, o.WeightKg)
		if err != nil {
			return nil, appErrors.Validation(fmt.Sprintf("robot %s energy profile", r.ID), err)
		}

		queue.Orders = append(queue.Orders, &OrderAssignment{
			Order:   common.ToOrderResponse(o),
			Pickup:  common.ToNodeResponse(pickup),
			Dropoff: common.ToNodeResponse(dropoff),
			Route: []Waypoint{
				toWaypoint(1, pickup, 0),
				toWaypoint(2, dropoff, dist),
			},
			DistanceMeters:   dist,
			EstimatedBattery: battery,
		})
		queue.TotalDistance += dist
		totalBattery += battery
	}
	queue.EstimatedBattery = geo.Round2(totalBattery)

	return queue, nil
}

func toWaypoint(seq int, n *node.Node, dist float64) Waypoint {
	return Waypoint{
		Sequence:       seq,
		NodeID:         n.ID,
		Name:           n.Name,
		Latitude:       n.Latitude,
		Longitude:      n.Longitude,
		DistanceMeters: dist,
	}
}

// AcceptOrder confirms the robot has taken an order bound to it. Accepting
// again is reported, not refused.
func (s *Service) AcceptOrder(ctx context.Context, robotID, orderID uuid.UUID) (*AcceptResult, error) {
	unlock := s.locks.Lock(robotID)
	defer unlock()

	var (
		result    AcceptResult
		accepted  *order.Order
		prevOrder order.Status
		prevRobot robot.Status
		r         *robot.Robot
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		r, err = repos.Robots.GetForUpdate(ctx, robotID)
		if err != nil {
			return common.RobotErr(err, robotID)
		}
		o, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return common.OrderErr(err, orderID)
		}
		if !o.IsAssignedTo(robotID) {
			return appErrors.Forbidden(fmt.Sprintf("order %s is not assigned to robot %s", orderID, robotID))
		}
		if o.Status != order.StatusPending && o.Status != order.StatusProcessing {
			return appErrors.InvalidOrderState(o.ID, string(o.Status), "accepted")
		}

		prevOrder, prevRobot = o.Status, r.Status
		accepted = o
		if o.Status == order.StatusProcessing && r.Status == robot.StatusDelivering {
			result.AlreadyAccepted = true
			return nil
		}

		now := s.now()
		if _, err := o.Advance(order.StatusProcessing, now); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		if r.Status != robot.StatusDelivering {
			// holding an active order forces Delivering
			if err := r.SetStatus(robot.StatusDelivering, now); err != nil {
				return err
			}
			if err := repos.Robots.Update(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Order = common.ToOrderResponse(accepted)
	if result.AlreadyAccepted {
		return &result, nil
	}

	logger.Info("Order accepted by robot",
		zap.String("order_id", orderID.String()),
		zap.String("robot_id", robotID.String()),
		zap.String("event", "order_accepted"),
	)
	s.emitOrderChange(accepted, prevOrder, "accepted")
	s.emitRobotChange(r, prevRobot)
	common.CacheRobotState(ctx, s.state, r)

	return &result, nil
}

// ReportPhase applies a robot's milestone to its order and to itself.
func (s *Service) ReportPhase(ctx context.Context, robotID, orderID uuid.UUID, req *PhaseReport) (*PhaseResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid phase report", err)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, appErrors.Validation("latitude and longitude must be provided together", nil)
	}
	if req.Latitude != nil {
		if err := geo.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
			return nil, appErrors.Validation("Invalid coordinates", err)
		}
	}

	phase := ParsePhase(req.Phase)
	res, err := s.reportPhase(ctx, robotID, orderID, phase, req)

	label := phase.String()
	if err != nil {
		s.metrics.IncPhaseReport(label, string(appErrors.CodeOf(err)))
		logger.Warn("Phase report rejected",
			zap.String("order_id", orderID.String()),
			zap.String("robot_id", robotID.String()),
			zap.String("phase", req.Phase),
			zap.Error(err),
		)
		return nil, err
	}
	if res.Changed {
		s.metrics.IncPhaseReport(label, metrics.OutcomeSuccess)
	} else {
		s.metrics.IncPhaseReport(label, metrics.OutcomeNoop)
	}
	return res, nil
}

func (s *Service) reportPhase(ctx context.Context, robotID, orderID uuid.UUID, phase Phase, req *PhaseReport) (*PhaseResult, error) {
	unlock := s.locks.Lock(robotID)
	defer unlock()

	reportedAt := req.Timestamp.UTC()
	if req.Timestamp.IsZero() {
		reportedAt = s.now()
	}

	var (
		o            *order.Order
		r            *robot.Robot
		prevOrder    order.Status
		prevRobot    robot.Status
		orderChanged bool
		robotChanged bool
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		r, err = repos.Robots.GetForUpdate(ctx, robotID)
		if err != nil {
			return common.RobotErr(err, robotID)
		}
		o, err = repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return common.OrderErr(err, orderID)
		}
		if !o.IsAssignedTo(robotID) {
			return appErrors.Forbidden(fmt.Sprintf("order %s is not assigned to robot %s", orderID, robotID))
		}

		eff, ok := phase.effect()
		if !ok {
			return appErrors.UnknownPhase(req.Phase)
		}

		now := s.now()
		prevOrder, prevRobot = o.Status, r.Status

		if eff.order != nil {
			if orderChanged, err = o.Advance(*eff.order, now); err != nil {
				return err
			}
		}

		// terminal orders are frozen; only the report that closes one is recorded
		if !prevOrder.IsTerminal() {
			name := phase.String()
			o.LastPhase = &name
			o.LastPhaseAt = &reportedAt
			o.UpdatedAt = now
			if err := repos.Orders.Update(ctx, o); err != nil {
				return err
			}
		}

		if eff.robot != nil {
			active, err := repos.Orders.CountActiveByRobot(ctx, robotID)
			if err != nil {
				return err
			}
			switch *eff.robot {
			case robot.StatusIdle:
				if robotChanged = r.Release(active, now); robotChanged {
					r.TargetNodeID = nil
				}
			case robot.StatusCharging:
				if robotChanged, err = r.HeadToCharging(active, now); err != nil {
					return err
				}
			}
		}

		if req.Latitude != nil {
			r.SetLivePosition(*req.Latitude, *req.Longitude)
			r.UpdatedAt = now
		}
		if robotChanged || req.Latitude != nil {
			if err := repos.Robots.Update(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Phase reported",
		zap.String("order_id", orderID.String()),
		zap.String("robot_id", robotID.String()),
		zap.String("phase", phase.String()),
		zap.String("order_status", string(o.Status)),
		zap.String("robot_status", string(r.Status)),
		zap.String("event", "phase_reported"),
	)

	s.events.Emit(events.Event{
		Type: events.PhaseReported,
		Key:  orderID.String(),
		Payload: events.PhaseReportedEvent{
			OrderID:    orderID,
			RobotID:    robotID,
			Phase:      phase.String(),
			ReportedAt: reportedAt,
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			Message:    req.Message,
		},
	})
	if orderChanged {
		s.emitOrderChange(o, prevOrder, phase.String())
	}
	if robotChanged {
		s.emitRobotChange(r, prevRobot)
	}
	if robotChanged || req.Latitude != nil {
		common.CacheRobotState(ctx, s.state, r)
	}

	return &PhaseResult{
		Order:       common.ToOrderResponse(o),
		Phase:       phase.String(),
		RobotStatus: string(r.Status),
		Changed:     orderChanged || robotChanged,
	}, nil
}

func (s *Service) emitOrderChange(o *order.Order, prev order.Status, detail string) {
	if o.Status == prev {
		return
	}
	s.events.Emit(events.Event{
		Type: events.OrderStatusChanged,
		Key:  o.ID.String(),
		Payload: events.OrderStatusChangedEvent{
			OrderID:   o.ID,
			RobotID:   o.RobotID,
			OldStatus: string(prev),
			NewStatus: string(o.Status),
			Detail:    detail,
		},
	})
}

func (s *Service) emitRobotChange(r *robot.Robot, prev robot.Status) {
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
