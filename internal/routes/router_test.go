package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"robot-dispatch/internal/config"
	domainNode "robot-dispatch/internal/domain/node"
	domainOrder "robot-dispatch/internal/domain/order"
	domainRobot "robot-dispatch/internal/domain/robot"
	domainUser "robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/infrastructure/database/postgres"
	"robot-dispatch/internal/lock"
	"robot-dispatch/internal/metrics"
	"robot-dispatch/internal/testutil"
	"robot-dispatch/internal/usecase/common"
	"robot-dispatch/internal/usecase/dispatch"
	"robot-dispatch/internal/usecase/fleet"
	"robot-dispatch/internal/usecase/node"
	"robot-dispatch/internal/usecase/order"
	"robot-dispatch/internal/usecase/robot"
	"robot-dispatch/internal/usecase/user"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
	fx     *testutil.Fixtures
	bus    *events.EventBus
}

func newServer(t *testing.T, checks map[string]HealthCheck) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewDispatchMetrics(reg)
	bus := events.NewEventBus()
	hub := events.NewHub(bus)
	hub.Start()
	t.Cleanup(hub.Stop)
	locks := lock.NewKeyed()
	uow := postgres.NewUnitOfWork(db)

	users := postgres.NewUserRepository(db)
	nodes := postgres.NewNodeRepository(db)
	robots := postgres.NewRobotRepository(db)
	orders := postgres.NewOrderRepository(db)

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT:    config.JWTConfig{Secret: testSecret, ExpiryHours: 1},
	}

	svc := Services{
		Users:  user.NewService(users, nodes, cfg.JWT),
		Nodes:  node.NewService(nodes),
		Orders: order.NewService(orders, users, nodes, bus),
		Dispatch: dispatch.NewService(dispatch.Deps{
			UnitOfWork: uow,
			Orders:     orders,
			Robots:     robots,
			Nodes:      nodes,
			Locks:      locks,
			Events:     bus,
			Metrics:    m,
		}),
		Fleet: fleet.NewService(fleet.Deps{
			UnitOfWork: uow,
			Orders:     orders,
			Robots:     robots,
			Nodes:      nodes,
			Locks:      locks,
			Events:     bus,
			Metrics:    m,
		}),
		Robots: robot.NewService(robot.Deps{
			UnitOfWork: uow,
			Robots:     robots,
			Orders:     orders,
			Nodes:      nodes,
			Locks:      locks,
			Events:     bus,
			Metrics:    m,
			JWT:        cfg.JWT,
		}),
		Events:       hub,
		Gatherer:     reg,
		HealthChecks: checks,
	}

	return &server{t: t, engine: SetupRoutes(cfg, svc), fx: testutil.NewFixtures(t, db), bus: bus}
}

func (s *server) userToken(u *domainUser.User) string {
	s.t.Helper()
	pair, err := utils.GenerateUserToken(u.ID, u.Email, u.Role, testSecret, 1)
	require.NoError(s.t, err)
	return pair.AccessToken
}

func (s *server) robotToken(r *domainRobot.Robot) string {
	s.t.Helper()
	pair, err := utils.GenerateRobotToken(r.ID, testSecret, 1)
	require.NoError(s.t, err)
	return pair.AccessToken
}

func (s *server) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthReportsFailingCheck(t *testing.T) {
	s := newServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t, nil)

	code, env := s.do(http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, _ = s.do(http.MethodGet, "/api/v1/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRoleSeparation(t *testing.T) {
	s := newServer(t, nil)
	r := s.fx.Robot("r1")
	customer := s.fx.User(domainUser.RoleUser)

	code, env := s.do(http.MethodGet, "/api/v1/admin/robots", s.robotToken(r), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, _ = s.do(http.MethodGet, "/api/v1/admin/robots", s.userToken(customer), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/v1/robot/orders", s.userToken(customer), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/v1/orders", s.robotToken(r), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRegisterAndLoginOverHTTP(t *testing.T) {
	s := newServer(t, nil)

	code, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":         "alice",
		"email":            "Alice@Example.com",
		"password":         "Sup3rSecret!",
		"confirm_password": "Sup3rSecret!",
		"full_name":        "Alice",
		"role":             "user",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "Sup3rSecret!",
	})
	require.Equal(t, http.StatusOK, code)
	auth := decode[user.AuthResponse](t, env.Data)
	require.NotEmpty(t, auth.AccessToken)

	code, env = s.do(http.MethodGet, "/api/v1/profile", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	profile := decode[user.UserResponse](t, env.Data)
	assert.Equal(t, "alice@example.com", profile.Email)

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password1",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestDeliveryLifecycleOverHTTP(t *testing.T) {
	s := newServer(t, nil)
	admin := s.fx.User(domainUser.RoleAdmin)
	sender := s.fx.User(domainUser.RoleUser)
	recipient := s.fx.User(domainUser.RoleUser)
	adminToken := s.userToken(admin)
	senderToken := s.userToken(sender)

	createNode := func(name string, lat, lon float64, typ string) uuid.UUID {
		code, env := s.do(http.MethodPost, "/api/v1/admin/nodes", adminToken, map[string]any{
			"name": name, "latitude": lat, "longitude": lon, "type": typ,
		})
		require.Equal(t, http.StatusCreated, code, env.Message)
		return decode[common.NodeResponse](t, env.Data).ID
	}
	pickupID := createNode("shop", 0, 0, "pickup")
	dropoffID := createNode("home", 0, 0.01, "dropoff")

	pickup := &domainNode.Node{ID: pickupID}
	courier := s.fx.Robot("courier", testutil.AtNode(pickup), testutil.WithBattery(90))
	robotToken := s.robotToken(courier)

	code, env := s.do(http.MethodPost, "/api/v1/orders", senderToken, map[string]any{
		"recipient_id":    recipient.ID,
		"name":            "books",
		"weight_kg":       1.5,
		"product_price":   20,
		"payer":           "sender",
		"pickup_node_id":  pickupID,
		"dropoff_node_id": dropoffID,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[orderView](t, env.Data)
	assert.Equal(t, string(domainOrder.StatusPending), created.Status)

	orderPath := "/api/v1/admin/orders/" + created.ID.String()
	code, env = s.do(http.MethodPost, orderPath+"/execute", adminToken, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	executed := decode[dispatch.ExecuteResponse](t, env.Data)
	assert.Equal(t, courier.ID, executed.Robot.ID)
	assert.Len(t, executed.Route.Segments, 2)
	assert.False(t, executed.DeviceNotified)

	code, env = s.do(http.MethodGet, "/api/v1/robot/orders", robotToken, nil)
	require.Equal(t, http.StatusOK, code)
	queue := decode[fleet.AssignmentQueue](t, env.Data)
	require.Len(t, queue.Orders, 1)
	assert.Equal(t, created.ID, queue.Orders[0].Order.ID)

	phasePath := "/api/v1/robot/orders/" + created.ID.String() + "/phase"
	for _, phase := range []string{"FLIGHT_TO_PICKUP", "LOADING", "FLIGHT_TO_DROPOFF", "PACKAGE_DELIVERED"} {
		code, env = s.do(http.MethodPost, phasePath, robotToken, map[string]any{"phase": phase})
		require.Equal(t, http.StatusOK, code, phase+": "+env.Message)
	}
	result := decode[fleet.PhaseResult](t, env.Data)
	assert.Equal(t, string(domainRobot.StatusIdle), result.RobotStatus)

	code, env = s.do(http.MethodGet, "/api/v1/orders/"+created.ID.String(), senderToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(domainOrder.StatusDelivered), decode[orderView](t, env.Data).Status)

	code, env = s.do(http.MethodPost, phasePath, robotToken, map[string]any{"phase": "TELEPORTING"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "UNKNOWN_PHASE", env.Error.Code)

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dispatch_assignments_total{outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), `phase_reports_total{outcome="success",phase="PACKAGE_DELIVERED"} 1`)
}

func TestAssignErrorsOverHTTP(t *testing.T) {
	s := newServer(t, nil)
	admin := s.fx.User(domainUser.RoleAdmin)
	sender := s.fx.User(domainUser.RoleUser)
	recipient := s.fx.User(domainUser.RoleUser)
	a := s.fx.Node("a", 0, 0, domainNode.TypePickup)
	b := s.fx.Node("b", 0, 0.01, domainNode.TypeDropoff)
	o := s.fx.Order(sender, recipient, a, b)
	token := s.userToken(admin)

	path := "/api/v1/admin/orders/" + o.ID.String() + "/assign"

	code, env := s.do(http.MethodPost, path, token, map[string]any{"robot_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	busy := s.fx.Robot("busy", testutil.WithStatus(domainRobot.StatusCharging))
	code, env = s.do(http.MethodPost, path, token, map[string]any{"robot_id": busy.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "UNAVAILABLE", env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/v1/admin/orders/not-a-uuid/assign", token, map[string]any{"robot_id": busy.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = s.do(http.MethodPost, path, token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

// orderView is the subset of the order payload the tests inspect.
type orderView struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func TestAdminEventStream(t *testing.T) {
	s := newServer(t, nil)
	admin := s.fx.User(domainUser.RoleAdmin)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/admin/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.userToken(admin))

	// headers go out with the first event and the client registers
	// asynchronously, so keep emitting until one arrives
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.bus.Emit(events.Event{Type: events.OrderCreated, Key: "order-1"})
			}
		}
	}()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event:") {
			assert.Equal(t, "event:order.created", strings.TrimSpace(line))
			break
		}
	}
	cancel()
}
