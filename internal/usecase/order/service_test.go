package order

import (
	"context"
	"testing"

	domainNode "robot-dispatch/internal/domain/node"
	domainOrder "robot-dispatch/internal/domain/order"
	domainUser "robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/infrastructure/database/postgres"
	"robot-dispatch/internal/testutil"
	appErrors "robot-dispatch/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *testutil.Fixtures, *[]events.Event) {
	t.Helper()
	db := testutil.NewDB(t)
	bus := events.NewEventBus()
	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })

	svc := NewService(
		postgres.NewOrderRepository(db),
		postgres.NewUserRepository(db),
		postgres.NewNodeRepository(db),
		bus,
	)
	return svc, testutil.NewFixtures(t, db), &got
}

func TestDeliveryPrice(t *testing.T) {
	assert.Equal(t, 50.0, DeliveryPrice(0))
	assert.Equal(t, 75.0, DeliveryPrice(2.5))
	assert.Equal(t, 51.23, DeliveryPrice(0.1234))
}

func TestCreateOrder(t *testing.T) {
	svc, fx, got := setup(t)
	sender := fx.User(domainUser.RoleUser)
	recipient := fx.User(domainUser.RoleUser)
	a := fx.Node("a", 1, 1, domainNode.TypePickup)
	b := fx.Node("b", 1, 2, domainNode.TypeDropoff)

	resp, err := svc.Create(context.Background(), sender.ID, &CreateOrderRequest{
		RecipientID:   recipient.ID,
		Name:          "  books  ",
		Description:   "two <b>hardcovers</b>",
		WeightKg:      1.5,
		ProductPrice:  40,
		Payer:         "recipient",
		PickupNodeID:  a.ID,
		DropoffNodeID: b.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, string(domainOrder.StatusPending), resp.Status)
	assert.Equal(t, "books", resp.Name)
	assert.Equal(t, "two &lt;b&gt;hardcovers&lt;/b&gt;", resp.Description)
	assert.Equal(t, 65.0, resp.DeliveryPrice)
	assert.Equal(t, string(domainOrder.PayerRecipient), resp.Payer)
	assert.False(t, resp.IsDeliveryPaid)
	assert.Nil(t, resp.RobotID)

	stored := fx.ReloadOrder(resp.ID)
	assert.Equal(t, sender.ID, stored.SenderID)

	require.Len(t, *got, 1)
	assert.Equal(t, events.OrderCreated, (*got)[0].Type)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, fx, _ := setup(t)
	sender := fx.User(domainUser.RoleUser)
	recipient := fx.User(domainUser.RoleUser)
	a := fx.Node("a", 1, 1, domainNode.TypePickup)
	b := fx.Node("b", 1, 2, domainNode.TypeDropoff)

	valid := func() *CreateOrderRequest {
		return &CreateOrderRequest{
			RecipientID:   recipient.ID,
			Name:          "parcel",
			WeightKg:      1,
			Payer:         "sender",
			PickupNodeID:  a.ID,
			DropoffNodeID: b.ID,
		}
	}

	tests := []struct {
		name   string
		mutate func(r *CreateOrderRequest)
		code   appErrors.Code
	}{
		{"zero weight", func(r *CreateOrderRequest) { r.WeightKg = 0 }, appErrors.CodeValidation},
		{"negative weight", func(r *CreateOrderRequest) { r.WeightKg = -1 }, appErrors.CodeValidation},
		{"negative product price", func(r *CreateOrderRequest) { r.ProductPrice = -0.01 }, appErrors.CodeValidation},
		{"bad payer", func(r *CreateOrderRequest) { r.Payer = "courier" }, appErrors.CodeValidation},
		{"self delivery", func(r *CreateOrderRequest) { r.RecipientID = sender.ID }, appErrors.CodeValidation},
		{"same node", func(r *CreateOrderRequest) { r.DropoffNodeID = a.ID }, appErrors.CodeValidation},
		{"unknown recipient", func(r *CreateOrderRequest) { r.RecipientID = uuid.New() }, appErrors.CodeNotFound},
		{"unknown node", func(r *CreateOrderRequest) { r.PickupNodeID = uuid.New() }, appErrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), sender.ID, req)
			assert.Equal(t, tt.code, appErrors.CodeOf(err))
		})
	}
}

func TestGetOrderVisibility(t *testing.T) {
	svc, fx, _ := setup(t)
	sender := fx.User(domainUser.RoleUser)
	recipient := fx.User(domainUser.RoleUser)
	stranger := fx.User(domainUser.RoleUser)
	admin := fx.User(domainUser.RoleAdmin)
	a := fx.Node("a", 1, 1, domainNode.TypePickup)
	b := fx.Node("b", 1, 2, domainNode.TypeDropoff)
	o := fx.Order(sender, recipient, a, b)

	for _, u := range []*domainUser.User{sender, recipient, admin} {
		resp, err := svc.Get(context.Background(), o.ID, u.ID, u.Role)
		require.NoError(t, err)
		assert.Equal(t, o.ID, resp.ID)
	}

	_, err := svc.Get(context.Background(), o.ID, stranger.ID, stranger.Role)
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))

	_, err = svc.Get(context.Background(), uuid.New(), admin.ID, admin.Role)
	assert.Equal(t, appErrors.CodeNotFound, appErrors.CodeOf(err))
}

func TestListOrdersByRole(t *testing.T) {
	svc, fx, _ := setup(t)
	alice := fx.User(domainUser.RoleUser)
	bob := fx.User(domainUser.RoleUser)
	a := fx.Node("a", 1, 1, domainNode.TypePickup)
	b := fx.Node("b", 1, 2, domainNode.TypeDropoff)

	fx.Order(alice, bob, a, b)
	fx.Order(alice, bob, a, b, testutil.OrderStatus(domainOrder.StatusCancelled))
	fx.Order(bob, alice, a, b)

	sent, err := svc.List(context.Background(), alice.ID, &ListOrdersQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, sent.Total)
	assert.Equal(t, 1, sent.Page)
	assert.Equal(t, 20, sent.PageSize)

	received, err := svc.List(context.Background(), alice.ID, &ListOrdersQuery{Role: "received"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, received.Total)

	cancelled, err := svc.List(context.Background(), alice.ID, &ListOrdersQuery{Status: "Cancelled"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, cancelled.Total)

	_, err = svc.List(context.Background(), alice.ID, &ListOrdersQuery{Role: "both"})
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
}
