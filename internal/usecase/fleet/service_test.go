package fleet

import (
	"context"
	"sync"
	"testing"
	"time"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/geo"
	"robot-dispatch/internal/infrastructure/database/postgres"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/testutil"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	fx      *testutil.Fixtures
	svc     *Service
	reg     *prometheus.Registry
	state   *testutil.StateCache
	sender  *user.User
	rcpt    *user.User
	pickup  *node.Node
	dropoff *node.Node

	mu     sync.Mutex
	events []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	bus := events.NewEventBus()
	h := &harness{fx: testutil.NewFixtures(t, db), reg: prometheus.NewRegistry(), state: testutil.NewStateCache()}
	bus.Subscribe(func(e events.Event) {
		h.mu.Lock()
		h.events = append(h.events, e)
		h.mu.Unlock()
	})

	h.svc = NewService(Deps{
		UnitOfWork: postgres.NewUnitOfWork(db),
		Orders:     postgres.NewOrderRepository(db),
		Robots:     postgres.NewRobotRepository(db),
		Nodes:      postgres.NewNodeRepository(db),
		State:      h.state,
		Events:     bus,
		Metrics:    metrics.NewDispatchMetrics(h.reg),
	})

	h.sender = h.fx.User(user.RoleUser)
	h.rcpt = h.fx.User(user.RoleUser)
	h.pickup = h.fx.Node("shop", 0, 0, node.TypePickup)
	h.dropoff = h.fx.Node("home", 0, 1, node.TypeDropoff)
	return h
}

// busyRobot returns a Delivering robot holding one order in status s.
func (h *harness) busyRobot(s order.Status, opts ...testutil.OrderOption) (*robot.Robot, *order.Order) {
	r := h.fx.Robot("r-"+uuid.NewString()[:6], testutil.WithStatus(robot.StatusDelivering))
	opts = append([]testutil.OrderOption{testutil.OrderStatus(s), testutil.AssignedTo(r)}, opts...)
	return r, h.fx.Order(h.sender, h.rcpt, h.pickup, h.dropoff, opts...)
}

func (h *harness) eventTypes() []events.Type {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]events.Type, len(h.events))
	for i, e := range h.events {
		out[i] = e.Type
	}
	return out
}

func report(phase string) *PhaseReport {
	return &PhaseReport{Phase: phase, Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestListMyOrdersProjectsRoute(t *testing.T) {
	h := newHarness(t)
	r, o := h.busyRobot(order.StatusProcessing, testutil.Weight(2))
	h.fx.Order(h.sender, h.rcpt, h.pickup, h.dropoff, testutil.OrderStatus(order.StatusDelivered), testutil.AssignedTo(r))

	queue, err := h.svc.ListMyOrders(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, queue.Orders, 1)

	got := queue.Orders[0]
	assert.Equal(t, o.ID, got.Order.ID)
	require.Len(t, got.Route, 2)
	assert.Equal(t, "shop", got.Route[0].Name)
	assert.Zero(t, got.Route[0].DistanceMeters)
	assert.Equal(t, "home", got.Route[1].Name)
	assert.InDelta(t, 111195, got.Route[1].DistanceMeters, 1112)

	// 50 J/m, 500 kJ, 20% penalty for 2 kg
	wantBattery := geo.Round2(got.DistanceMeters * 50 * 1.2 / 500000 * 100)
	assert.InDelta(t, wantBattery, got.EstimatedBattery, 0.011)
	assert.Equal(t, got.DistanceMeters, queue.TotalDistance)
	assert.Equal(t, got.EstimatedBattery, queue.EstimatedBattery)
	assert.Equal(t, r.BatteryLevel, queue.BatteryLevel)

	// read-only
	assert.Equal(t, order.StatusProcessing, h.fx.ReloadOrder(o.ID).Status)
	assert.Empty(t, h.eventTypes())
}

func TestListMyOrdersUnknownRobot(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ListMyOrders(context.Background(), uuid.New())
	assert.Equal(t, appErrors.CodeNotFound, appErrors.CodeOf(err))
}

func TestAcceptOrder(t *testing.T) {
	t.Run("pending becomes processing", func(t *testing.T) {
		h := newHarness(t)
		r := h.fx.Robot("r1")
		o := h.fx.Order(h.sender, h.rcpt, h.pickup, h.dropoff, testutil.AssignedTo(r))

		res, err := h.svc.AcceptOrder(context.Background(), r.ID, o.ID)
		require.NoError(t, err)
		assert.False(t, res.AlreadyAccepted)
		assert.Equal(t, order.StatusProcessing, h.fx.ReloadOrder(o.ID).Status)
		assert.Equal(t, robot.StatusDelivering, h.fx.ReloadRobot(r.ID).Status)
	})

	t.Run("retry is flagged", func(t *testing.T) {
		h := newHarness(t)
		r, o := h.busyRobot(order.StatusProcessing)

		res, err := h.svc.AcceptOrder(context.Background(), r.ID, o.ID)
		require.NoError(t, err)
		assert.True(t, res.AlreadyAccepted)
		assert.Empty(t, h.eventTypes())
	})

	t.Run("another robot's order", func(t *testing.T) {
		h := newHarness(t)
		_, o := h.busyRobot(order.StatusProcessing)
		intruder := h.fx.Robot("r2")

		_, err := h.svc.AcceptOrder(context.Background(), intruder.ID, o.ID)
		assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))
		assert.Equal(t, robot.StatusIdle, h.fx.ReloadRobot(intruder.ID).Status)
	})

	t.Run("en route cannot be accepted", func(t *testing.T) {
		h := newHarness(t)
		r, o := h.busyRobot(order.StatusEnRoute)

		_, err := h.svc.AcceptOrder(context.Background(), r.ID, o.ID)
		assert.Equal(t, appErrors.CodeInvalidOrderState, appErrors.CodeOf(err))
	})
}

func TestReportPhaseWalksTheDelivery(t *testing.T) {
	h := newHarness(t)
	r, o := h.busyRobot(order.StatusProcessing)
	ctx := context.Background()

	steps := []struct {
		phase string
		want  order.Status
	}{
		{"FLIGHT_TO_PICKUP", order.StatusProcessing},
		{"at_pickup", order.StatusProcessing},
		{"LOADING", order.StatusProcessing},
		{"FLIGHT_TO_DROPOFF", order.StatusEnRoute},
		{"AT_DROPOFF", order.StatusEnRoute},
		{"Unloading", order.StatusEnRoute},
	}
	for _, step := range steps {
		_, err := h.svc.ReportPhase(ctx, r.ID, o.ID, report(step.phase))
		require.NoError(t, err, step.phase)
		assert.Equal(t, step.want, h.fx.ReloadOrder(o.ID).Status, step.phase)
		assert.Equal(t, robot.StatusDelivering, h.fx.ReloadRobot(r.ID).Status, step.phase)
	}

	res, err := h.svc.ReportPhase(ctx, r.ID, o.ID, report("PACKAGE_DELIVERED"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, string(robot.StatusIdle), res.RobotStatus)

	got := h.fx.ReloadOrder(o.ID)
	assert.Equal(t, order.StatusDelivered, got.Status)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.LastPhase)
	assert.Equal(t, "PACKAGE_DELIVERED", *got.LastPhase)
	assert.Equal(t, robot.StatusIdle, h.fx.ReloadRobot(r.ID).Status)

	_, err = h.svc.ReportPhase(ctx, r.ID, o.ID, report("FLIGHT_TO_CHARGING"))
	require.NoError(t, err)
	assert.Equal(t, robot.StatusCharging, h.fx.ReloadRobot(r.ID).Status)
	assert.Equal(t, "PACKAGE_DELIVERED", *h.fx.ReloadOrder(o.ID).LastPhase)

	assert.Equal(t, 1.0, testutil.CounterValue(t, h.reg, "phase_reports_total",
		map[string]string{"phase": "PACKAGE_DELIVERED", "outcome": metrics.OutcomeSuccess}))
}

func TestReportPhaseDeliveredFromEnRoute(t *testing.T) {
	h := newHarness(t)
	r, o := h.busyRobot(order.StatusEnRoute)

	_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("PACKAGE_DELIVERED"))
	require.NoError(t, err)

	assert.Equal(t, order.StatusDelivered, h.fx.ReloadOrder(o.ID).Status)
	assert.Equal(t, robot.StatusIdle, h.fx.ReloadRobot(r.ID).Status)
	assert.Equal(t, []events.Type{events.PhaseReported, events.OrderStatusChanged, events.RobotStatusChanged}, h.eventTypes())

	cached, err := h.state.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, string(robot.StatusIdle), cached.Status)
}

func TestReportPhaseWithoutRobotChangeLeavesCacheAlone(t *testing.T) {
	h := newHarness(t)
	r, o := h.busyRobot(order.StatusProcessing)

	_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("FLIGHT_TO_DROPOFF"))
	require.NoError(t, err)

	_, err = h.state.Get(context.Background(), r.ID)
	assert.Error(t, err)
}

func TestReportPhaseDeliveredKeepsRobotBusyWithOtherWork(t *testing.T) {
	h := newHarness(t)
	r, o := h.busyRobot(order.StatusEnRoute)
	h.fx.Order(h.sender, h.rcpt, h.pickup, h.dropoff, testutil.OrderStatus(order.StatusProcessing), testutil.AssignedTo(r))

	_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("PACKAGE_DELIVERED"))
	require.NoError(t, err)
	assert.Equal(t, robot.StatusDelivering, h.fx.ReloadRobot(r.ID).Status)
}

func TestReportPhaseRejections(t *testing.T) {
	t.Run("other robot's order", func(t *testing.T) {
		h := newHarness(t)
		owner, o := h.busyRobot(order.StatusEnRoute)
		intruder := h.fx.Robot("r2")

		_, err := h.svc.ReportPhase(context.Background(), intruder.ID, o.ID, report("PACKAGE_DELIVERED"))
		assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))
		assert.Equal(t, order.StatusEnRoute, h.fx.ReloadOrder(o.ID).Status)
		assert.Equal(t, robot.StatusDelivering, h.fx.ReloadRobot(owner.ID).Status)
		assert.Equal(t, robot.StatusIdle, h.fx.ReloadRobot(intruder.ID).Status)
		assert.Empty(t, h.eventTypes())
	})

	t.Run("unknown phase", func(t *testing.T) {
		h := newHarness(t)
		r, o := h.busyRobot(order.StatusProcessing)

		_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("HOVERING"))
		assert.Equal(t, appErrors.CodeUnknownPhase, appErrors.CodeOf(err))
		assert.Contains(t, err.Error(), "HOVERING")
		assert.Nil(t, h.fx.ReloadOrder(o.ID).LastPhase)
	})

	t.Run("pickup phase after delivery", func(t *testing.T) {
		h := newHarness(t)
		r := h.fx.Robot("r1")
		o := h.fx.Order(h.sender, h.rcpt, h.pickup, h.dropoff, testutil.OrderStatus(order.StatusDelivered), testutil.AssignedTo(r))

		_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("AT_PICKUP"))
		assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
		assert.Equal(t, order.StatusDelivered, h.fx.ReloadOrder(o.ID).Status)
	})

	t.Run("backwards from en route", func(t *testing.T) {
		h := newHarness(t)
		r, o := h.busyRobot(order.StatusEnRoute)

		_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("LOADING"))
		assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
	})

	t.Run("charging while holding work", func(t *testing.T) {
		h := newHarness(t)
		r, o := h.busyRobot(order.StatusEnRoute)

		_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("FLIGHT_TO_CHARGING"))
		assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
		assert.Equal(t, robot.StatusDelivering, h.fx.ReloadRobot(r.ID).Status)
		assert.Nil(t, h.fx.ReloadOrder(o.ID).LastPhase)
	})

	t.Run("half a coordinate", func(t *testing.T) {
		h := newHarness(t)
		r, o := h.busyRobot(order.StatusProcessing)
		lat := 50.0
		req := report("AT_PICKUP")
		req.Latitude = &lat

		_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, req)
		assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
	})

	t.Run("latitude out of range", func(t *testing.T) {
		h := newHarness(t)
		r, o := h.busyRobot(order.StatusProcessing)
		lat, lon := 91.0, 10.0
		req := report("AT_PICKUP")
		req.Latitude, req.Longitude = &lat, &lon

		_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, req)
		assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
	})
}

func TestReportPhaseStoresLivePosition(t *testing.T) {
	h := newHarness(t)
	r := h.fx.Robot("parked", testutil.WithStatus(robot.StatusDelivering), testutil.AtNode(h.pickup))
	o := h.fx.Order(h.sender, h.rcpt, h.pickup, h.dropoff, testutil.OrderStatus(order.StatusProcessing), testutil.AssignedTo(r))
	lat, lon := 0.25, 0.5
	msg := "over the river"
	req := report("FLIGHT_TO_DROPOFF")
	req.Latitude, req.Longitude, req.Message = &lat, &lon, &msg

	_, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, req)
	require.NoError(t, err)

	got := h.fx.ReloadRobot(r.ID)
	pos, ok := got.LivePosition()
	require.True(t, ok)
	assert.Equal(t, lat, pos.Latitude)
	assert.Equal(t, lon, pos.Longitude)
	assert.Nil(t, got.CurrentNodeID, "coordinates replace the node set at assignment")

	cached, err := h.state.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.NotNil(t, cached.Latitude)
	assert.Equal(t, lat, *cached.Latitude)
	assert.Nil(t, cached.CurrentNodeID)

	gotOrder := h.fx.ReloadOrder(o.ID)
	require.NotNil(t, gotOrder.LastPhaseAt)
	assert.True(t, req.Timestamp.Equal(*gotOrder.LastPhaseAt))
}

func TestReportPhaseRepeatIsNoop(t *testing.T) {
	h := newHarness(t)
	r, o := h.busyRobot(order.StatusEnRoute)

	res, err := h.svc.ReportPhase(context.Background(), r.ID, o.ID, report("AT_DROPOFF"))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, []events.Type{events.PhaseReported}, h.eventTypes())
	assert.Equal(t, 1.0, testutil.CounterValue(t, h.reg, "phase_reports_total",
		map[string]string{"phase": "AT_DROPOFF", "outcome": metrics.OutcomeNoop}))
}
