// Package testutil builds throwaway sqlite databases and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
	"robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/infrastructure/database/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// NewDB opens a private in-memory database with the schema migrated.
func NewDB(t testing.TB) *postgres.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := postgres.Open(sqlite.Open(dsn), "test")
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// Fixtures creates entities with sensible defaults.
type Fixtures struct {
	t     testing.TB
	repos postgresRepos
}

type postgresRepos struct {
	users  *postgres.UserRepository
	nodes  *postgres.NodeRepository
	robots *postgres.RobotRepository
	orders *postgres.OrderRepository
}

func NewFixtures(t testing.TB, db *postgres.DB) *Fixtures {
	return &Fixtures{
		t: t,
		repos: postgresRepos{
			users:  postgres.NewUserRepository(db),
			nodes:  postgres.NewNodeRepository(db),
			robots: postgres.NewRobotRepository(db),
			orders: postgres.NewOrderRepository(db),
		},
	}
}

func (f *Fixtures) User(role string) *user.User {
	f.t.Helper()
	id := uuid.New()
	u := &user.User{
		ID:             id,
		Username:       "user-" + id.String()[:8],
		Email:          id.String()[:8] + "@example.com",
		PasswordHashed: "x",
		FullName:       "Test User",
		Role:           role,
	}
	require.NoError(f.t, f.repos.users.Create(context.Background(), u))
	return u
}

func (f *Fixtures) Node(name string, lat, lon float64, nodeType node.Type) *node.Node {
	f.t.Helper()
	n := &node.Node{Name: name, Latitude: lat, Longitude: lon, Type: nodeType}
	require.NoError(f.t, f.repos.nodes.Create(context.Background(), n))
	return n
}

// RobotOption tweaks a robot before it is stored.
type RobotOption func(*robot.Robot)

func WithStatus(s robot.Status) RobotOption {
	return func(r *robot.Robot) { r.Status = s }
}

func WithBattery(level float64) RobotOption {
	return func(r *robot.Robot) { r.BatteryLevel = level }
}

func AtNode(n *node.Node) RobotOption {
	return func(r *robot.Robot) { r.CurrentNodeID = &n.ID }
}

// AtPosition sets raw coordinates and leaves CurrentNodeID alone, so a
// fixture can hold both.
func AtPosition(lat, lon float64) RobotOption {
	return func(r *robot.Robot) { r.CurrentLatitude, r.CurrentLongitude = &lat, &lon }
}

func WithEndpoint(host string, port int) RobotOption {
	return func(r *robot.Robot) {
		r.IPAddress = host
		r.Port = port
	}
}

func WithEnergy(capacityJoules, perMeterJoules float64) RobotOption {
	return func(r *robot.Robot) {
		r.BatteryCapacityJoules = capacityJoules
		r.EnergyPerMeterJoules = perMeterJoules
	}
}

func WithID(id uuid.UUID) RobotOption {
	return func(r *robot.Robot) { r.ID = id }
}

func WithAccessKeyHash(hash string) RobotOption {
	return func(r *robot.Robot) { r.AccessKeyHash = hash }
}

func (f *Fixtures) Robot(name string, opts ...RobotOption) *robot.Robot {
	f.t.Helper()
	r := &robot.Robot{
		Name:                  name,
		Model:                 "RD-1",
		Kind:                  robot.KindDrone,
		SerialNumber:          "SN-" + uuid.NewString()[:12],
		AccessKeyHash:         "x",
		Status:                robot.StatusIdle,
		BatteryLevel:          80,
		BatteryCapacityJoules: 500000,
		EnergyPerMeterJoules:  50,
	}
	for _, opt := range opts {
		opt(r)
	}
	require.NoError(f.t, f.repos.robots.Create(context.Background(), r))
	return r
}

// OrderOption tweaks an order before it is stored.
type OrderOption func(*order.Order)

func OrderStatus(s order.Status) OrderOption {
	return func(o *order.Order) {
		o.Status = s
		if s.IsTerminal() {
			now := time.Now().UTC()
			o.CompletedAt = &now
		}
	}
}

func AssignedTo(r *robot.Robot) OrderOption {
	return func(o *order.Order) { o.RobotID = &r.ID }
}

func Weight(kg float64) OrderOption {
	return func(o *order.Order) { o.WeightKg = kg }
}

func (f *Fixtures) Order(sender, recipient *user.User, pickup, dropoff *node.Node, opts ...OrderOption) *order.Order {
	f.t.Helper()
	o := &order.Order{
		Name:          "parcel",
		Description:   "test parcel",
		WeightKg:      1,
		DeliveryPrice: 60,
		ProductPrice:  100,
		Payer:         order.PayerSender,
		Status:        order.StatusPending,
		SenderID:      sender.ID,
		RecipientID:   recipient.ID,
		PickupNodeID:  pickup.ID,
		DropoffNodeID: dropoff.ID,
	}
	for _, opt := range opts {
		opt(o)
	}
	require.NoError(f.t, f.repos.orders.Create(context.Background(), o))
	return o
}

func (f *Fixtures) ReloadOrder(id uuid.UUID) *order.Order {
	f.t.Helper()
	o, err := f.repos.orders.GetByID(context.Background(), id)
	require.NoError(f.t, err)
	return o
}

func (f *Fixtures) ReloadRobot(id uuid.UUID) *robot.Robot {
	f.t.Helper()
	r, err := f.repos.robots.GetByID(context.Background(), id)
	require.NoError(f.t, err)
	return r
}
