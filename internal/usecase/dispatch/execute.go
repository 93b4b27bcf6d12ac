package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/geo"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// candidate is an idle robot scored for one order.
type candidate struct {
	robot    *robot.Robot
	from     string
	approach float64
	leg      float64
	toPickup float64
	deliver  float64
	cost     float64
}

// Execute picks the robot with the lowest predicted battery cost for the
// order and assigns it. Ties go to the fuller battery, then the lower id.
func (s *Service) Execute(ctx context.Context, orderID uuid.UUID) (*ExecuteResponse, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveExecute(time.Since(start)) }()

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, common.OrderErr(err, orderID)
	}
	if o.Status != order.StatusPending && o.Status != order.StatusProcessing {
		return nil, appErrors.InvalidOrderState(o.ID, string(o.Status), "executed")
	}
	if o.RobotID != nil {
		return nil, appErrors.Conflict(fmt.Sprintf("order %s is already assigned to robot %s", o.ID, *o.RobotID), nil)
	}

	nodes := common.NewNodeLookup(s.nodes)
	pickup, err := nodes.Get(ctx, o.PickupNodeID)
	if err != nil {
		return nil, err
	}
	dropoff, err := nodes.Get(ctx, o.DropoffNodeID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.rankCandidates(ctx, nodes, o, pickup, dropoff)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		resp, err := s.Assign(ctx, o.ID, c.robot.ID)
		if err != nil {
			// Lost the robot to a concurrent assignment; try the next one.
			if appErrors.Is(err, appErrors.CodeUnavailable) || appErrors.Is(err, appErrors.CodeInsufficientBattery) {
				continue
			}
			return nil, err
		}

		logger.Info("Order executed",
			zap.String("order_id", o.ID.String()),
			zap.String("robot_id", c.robot.ID.String()),
			zap.Float64("estimated_battery", c.cost),
			zap.Int("candidates", len(candidates)),
			zap.String("event", "order_executed"),
		)

		return &ExecuteResponse{
			AssignResponse: *resp,
			Route: Route{
				Segments: []RouteSegment{
					{
						Kind:           SegmentTravelToPickup,
						From:           c.from,
						To:             pickup.Name,
						DistanceMeters: c.approach,
						BatteryPercent: c.toPickup,
					},
					{
						Kind:           SegmentDeliverToDropoff,
						From:           pickup.Name,
						To:             dropoff.Name,
						DistanceMeters: c.leg,
						BatteryPercent: c.deliver,
					},
				},
				TotalDistance:    c.approach + c.leg,
				EstimatedBattery: c.cost,
			},
		}, nil
	}

	return nil, appErrors.NewAppError(appErrors.CodeUnavailable, fmt.Sprintf("no robot available for order %s", o.ID), nil)
}

func (s *Service) rankCandidates(ctx context.Context, nodes *common.NodeLookup, o *order.Order, pickup, dropoff *node.Node) ([]candidate, error) {
	idle := robot.StatusIdle
	floor := robot.MinDispatchBattery
	robots, err := s.robots.List(ctx, &robot.Filter{Status: &idle, MinBattery: &floor})
	if err != nil {
		return nil, err
	}

	leg := geo.Distance(pickup.Point(), dropoff.Point())

	candidates := make([]candidate, 0, len(robots))
	for _, r := range robots {
		from, approach := s.approach(ctx, nodes, r, pickup)

		toPickup, err := geo.BatteryUsagePercent(r.EnergyProfile(), approach, 0)
		if err != nil {
			logger.Warn("Skipping robot with bad energy profile",
				zap.String("robot_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}
		deliver, err := geo.BatteryUsagePercent(r.EnergyProfile(), leg, o.WeightKg)
		if err != nil {
			continue
		}

		cost := geo.Round2(toPickup + deliver)
		if cost > r.BatteryLevel {
			continue
		}
		candidates = append(candidates, candidate{
			robot:    r,
			from:     from,
			approach: approach,
			leg:      leg,
			toPickup: toPickup,
			deliver:  deliver,
			cost:     cost,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.robot.BatteryLevel != b.robot.BatteryLevel {
			return a.robot.BatteryLevel > b.robot.BatteryLevel
		}
		return bytes.Compare(a.robot.ID[:], b.robot.ID[:]) < 0
	})

	return candidates, nil
}

// approach measures how far the robot is from pickup. Live coordinates win
// over the current node; a robot with neither counts as already there.
func (s *Service) approach(ctx context.Context, nodes *common.NodeLookup, r *robot.Robot, pickup *node.Node) (string, float64) {
	if pos, ok := r.LivePosition(); ok {
		return "current position", geo.Distance(pos, pickup.Point())
	}
	if r.CurrentNodeID != nil {
		if n, err := nodes.Get(ctx, *r.CurrentNodeID); err == nil {
			return n.Name, geo.Distance(n.Point(), pickup.Point())
		}
	}
	return pickup.Name, 0
}
