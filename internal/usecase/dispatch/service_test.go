package dispatch

import (
	"context"
	"sync"
	"testing"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/infrastructure/database/postgres"
	"robot-dispatch/internal/infrastructure/device"
	"robot-dispatch/internal/infrastructure/device/mocks"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/testutil"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type harness struct {
	fx      *testutil.Fixtures
	svc     *Service
	device  *mocks.MockTransport
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
	ctrl := gomock.NewController(t)
	bus := events.NewEventBus()
	reg := prometheus.NewRegistry()

	h := &harness{
		fx:     testutil.NewFixtures(t, db),
		device: mocks.NewMockTransport(ctrl),
		reg:    reg,
		state:  testutil.NewStateCache(),
	}
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
		Device:     h.device,
		State:      h.state,
		Events:     bus,
		Metrics:    metrics.NewDispatchMetrics(reg),
	})

	h.sender = h.fx.User(user.RoleUser)
	h.rcpt = h.fx.User(user.RoleUser)
	h.pickup = h.fx.Node("shop", 50.4501, 30.5234, node.TypePickup)
	h.dropoff = h.fx.Node("home", 50.4601, 30.5334, node.TypeDropoff)
	return h
}

func (h *harness) order(opts ...testutil.OrderOption) *order.Order {
	return h.fx.Order(h.sender, h.rcpt, h.pickup, h.dropoff, opts...)
}

func (h *harness) eventTypes() []events.Type {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]events.Type, len(h.events))
	for i, e := range h.events {
		types[i] = e.Type
	}
	return types
}

func TestAssignBindsOrderAndRobot(t *testing.T) {
	h := newHarness(t)
	o := h.order()
	r := h.fx.Robot("r1", testutil.WithBattery(50))

	resp, err := h.svc.Assign(context.Background(), o.ID, r.ID)
	require.NoError(t, err)
	assert.False(t, resp.AlreadyAssigned)
	assert.False(t, resp.DeviceNotified)

	gotOrder := h.fx.ReloadOrder(o.ID)
	assert.Equal(t, order.StatusProcessing, gotOrder.Status)
	require.NotNil(t, gotOrder.RobotID)
	assert.Equal(t, r.ID, *gotOrder.RobotID)
	assert.Nil(t, gotOrder.CompletedAt)

	gotRobot := h.fx.ReloadRobot(r.ID)
	assert.Equal(t, robot.StatusDelivering, gotRobot.Status)
	require.NotNil(t, gotRobot.CurrentNodeID)
	assert.Equal(t, h.pickup.ID, *gotRobot.CurrentNodeID)

	assert.Equal(t, []events.Type{events.OrderAssigned, events.OrderStatusChanged, events.RobotStatusChanged}, h.eventTypes())
	assert.Equal(t, 1.0, testutil.CounterValue(t, h.reg, "dispatch_assignments_total", map[string]string{"outcome": metrics.OutcomeSuccess}))

	cached, err := h.state.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, string(robot.StatusDelivering), cached.Status)
	require.NotNil(t, cached.TargetNodeID)
	assert.Equal(t, h.dropoff.ID, *cached.TargetNodeID)
}

func TestAssignKeepsProcessingOrderProcessing(t *testing.T) {
	h := newHarness(t)
	o := h.order(testutil.OrderStatus(order.StatusProcessing))
	r := h.fx.Robot("r1")

	_, err := h.svc.Assign(context.Background(), o.ID, r.ID)
	require.NoError(t, err)

	assert.Equal(t, order.StatusProcessing, h.fx.ReloadOrder(o.ID).Status)
	assert.Equal(t, []events.Type{events.OrderAssigned, events.RobotStatusChanged}, h.eventTypes())
}

func TestAssignPreconditions(t *testing.T) {
	tests := []struct {
		name       string
		robotOpts  []testutil.RobotOption
		orderOpts  []testutil.OrderOption
		missing    string
		wantCode   appErrors.Code
		wantInText string
	}{
		{name: "order missing", missing: "order", wantCode: appErrors.CodeNotFound, wantInText: "order"},
		{name: "robot missing", missing: "robot", wantCode: appErrors.CodeNotFound, wantInText: "robot"},
		{name: "both missing reports order", missing: "both", wantCode: appErrors.CodeNotFound, wantInText: "order"},
		{
			name:       "robot charging",
			robotOpts:  []testutil.RobotOption{testutil.WithStatus(robot.StatusCharging)},
			wantCode:   appErrors.CodeUnavailable,
			wantInText: "Charging",
		},
		{
			name:      "status checked before battery",
			robotOpts: []testutil.RobotOption{testutil.WithStatus(robot.StatusMaintenance), testutil.WithBattery(5)},
			wantCode:  appErrors.CodeUnavailable,
		},
		{
			name:       "battery below floor",
			robotOpts:  []testutil.RobotOption{testutil.WithBattery(19.99)},
			wantCode:   appErrors.CodeInsufficientBattery,
			wantInText: "19.99%",
		},
		{
			name:      "battery checked before order state",
			robotOpts: []testutil.RobotOption{testutil.WithBattery(10)},
			orderOpts: []testutil.OrderOption{testutil.OrderStatus(order.StatusDelivered)},
			wantCode:  appErrors.CodeInsufficientBattery,
		},
		{
			name:       "order en route",
			orderOpts:  []testutil.OrderOption{testutil.OrderStatus(order.StatusEnRoute)},
			wantCode:   appErrors.CodeInvalidOrderState,
			wantInText: "EnRoute",
		},
		{
			name:      "order cancelled",
			orderOpts: []testutil.OrderOption{testutil.OrderStatus(order.StatusCancelled)},
			wantCode:  appErrors.CodeInvalidOrderState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			o := h.order(tt.orderOpts...)
			r := h.fx.Robot("r1", tt.robotOpts...)

			orderID, robotID := o.ID, r.ID
			switch tt.missing {
			case "order":
				orderID = uuid.New()
			case "robot":
				robotID = uuid.New()
			case "both":
				orderID, robotID = uuid.New(), uuid.New()
			}

			_, err := h.svc.Assign(context.Background(), orderID, robotID)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, appErrors.CodeOf(err))
			if tt.wantInText != "" {
				assert.Contains(t, err.Error(), tt.wantInText)
			}

			// nothing moved
			assert.Equal(t, o.Status, h.fx.ReloadOrder(o.ID).Status)
			assert.Nil(t, h.fx.ReloadOrder(o.ID).RobotID)
			assert.Equal(t, r.Status, h.fx.ReloadRobot(r.ID).Status)
			assert.Empty(t, h.eventTypes())
		})
	}
}

func TestAssignRejectsOrderBoundToAnotherRobot(t *testing.T) {
	h := newHarness(t)
	busy := h.fx.Robot("busy", testutil.WithStatus(robot.StatusDelivering))
	o := h.order(testutil.OrderStatus(order.StatusProcessing), testutil.AssignedTo(busy))
	r := h.fx.Robot("r2")

	_, err := h.svc.Assign(context.Background(), o.ID, r.ID)
	assert.Equal(t, appErrors.CodeConflict, appErrors.CodeOf(err))
	assert.Equal(t, robot.StatusIdle, h.fx.ReloadRobot(r.ID).Status)
}

func TestAssignRetryIsNoop(t *testing.T) {
	h := newHarness(t)
	o := h.order()
	r := h.fx.Robot("r1")

	_, err := h.svc.Assign(context.Background(), o.ID, r.ID)
	require.NoError(t, err)
	before := len(h.eventTypes())

	resp, err := h.svc.Assign(context.Background(), o.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, resp.AlreadyAssigned)
	assert.Equal(t, string(order.StatusProcessing), resp.Order.Status)
	assert.Len(t, h.eventTypes(), before)
	assert.Equal(t, 1.0, testutil.CounterValue(t, h.reg, "dispatch_assignments_total", map[string]string{"outcome": metrics.OutcomeNoop}))
}

func TestConcurrentAssignSameRobot(t *testing.T) {
	h := newHarness(t)
	o1 := h.order()
	o2 := h.order()
	r := h.fx.Robot("r1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, o := range []*order.Order{o1, o2} {
		wg.Add(1)
		go func(i int, orderID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = h.svc.Assign(context.Background(), orderID, r.ID)
		}(i, o.ID)
	}
	wg.Wait()

	var ok, unavailable int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case appErrors.Is(err, appErrors.CodeUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, unavailable)

	statuses := []order.Status{h.fx.ReloadOrder(o1.ID).Status, h.fx.ReloadOrder(o2.ID).Status}
	assert.ElementsMatch(t, []order.Status{order.StatusProcessing, order.StatusPending}, statuses)
}

func TestAssignPushesDeliveryCommand(t *testing.T) {
	h := newHarness(t)
	o := h.order(testutil.Weight(3))
	r := h.fx.Robot("r1", testutil.WithEndpoint("10.0.0.5", 8081))

	h.device.EXPECT().
		SendDeliveryCommand(gomock.Any(), device.Endpoint{Host: "10.0.0.5", Port: 8081}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ device.Endpoint, cmd device.DeliveryCommand) (*device.Reply, error) {
			assert.Equal(t, o.ID, cmd.OrderID)
			assert.Equal(t, device.ActionDeliver, cmd.Action)
			assert.Equal(t, "shop", cmd.Pickup.Name)
			assert.Equal(t, "home", cmd.Dropoff.Name)
			assert.Equal(t, 3.0, cmd.Weight)
			return &device.Reply{Success: true}, nil
		})

	resp, err := h.svc.Assign(context.Background(), o.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, resp.DeviceNotified)
	assert.Empty(t, resp.DeviceError)
}

func TestAssignDeviceFailureKeepsAssignment(t *testing.T) {
	h := newHarness(t)
	o := h.order()
	r := h.fx.Robot("r1", testutil.WithEndpoint("10.0.0.5", 8081))

	h.device.EXPECT().
		SendDeliveryCommand(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, appErrors.Device("device HTTP 503: busy", nil))

	resp, err := h.svc.Assign(context.Background(), o.ID, r.ID)
	require.NoError(t, err)
	assert.False(t, resp.DeviceNotified)
	assert.Contains(t, resp.DeviceError, "503")

	assert.Equal(t, order.StatusProcessing, h.fx.ReloadOrder(o.ID).Status)
	assert.Equal(t, robot.StatusDelivering, h.fx.ReloadRobot(r.ID).Status)
	assert.Contains(t, h.eventTypes(), events.DeviceCommandFailed)
	assert.Equal(t, 1.0, testutil.CounterValue(t, h.reg, "device_commands_total",
		map[string]string{"operation": "delivery", "outcome": metrics.OutcomeFailure}))
}
