// Package order covers order creation and the sender/recipient views.
package order

import (
	"context"
	"strings"

	domainNode "robot-dispatch/internal/domain/node"
	domainOrder "robot-dispatch/internal/domain/order"
	domainUser "robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/events"
	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/usecase/common"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements order use cases
type Service struct {
	orderRepo domainOrder.Repository
	userRepo  domainUser.Repository
	nodeRepo  domainNode.Repository
	events    events.Emitter
}

// NewService creates a new order service
func NewService(
	orderRepo domainOrder.Repository,
	userRepo domainUser.Repository,
	nodeRepo domainNode.Repository,
	emitter events.Emitter,
) *Service {
	return &Service{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		nodeRepo:  nodeRepo,
		events:    events.OrEmpty(emitter),
	}
}

func (s *Service) Create(ctx context.Context, senderID uuid.UUID, req *CreateOrderRequest) (*common.OrderResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	// Validate parties
	if req.RecipientID == senderID {
		return nil, appErrors.Validation("Recipient must differ from sender", nil)
	}
	if _, err := s.userRepo.GetByID(ctx, senderID); err != nil {
		return nil, common.UserErr(err, senderID)
	}
	recipient, err := s.userRepo.GetByID(ctx, req.RecipientID)
	if err != nil {
		return nil, common.UserErr(err, req.RecipientID)
	}
	if !recipient.IsActive {
		return nil, appErrors.Validation("Recipient account is inactive", nil)
	}

	// Validate nodes
	if req.PickupNodeID == req.DropoffNodeID {
		return nil, appErrors.Validation("Pickup and dropoff must be different nodes", nil)
	}
	if _, err := s.nodeRepo.GetByID(ctx, req.PickupNodeID); err != nil {
		return nil, common.NodeErr(err, req.PickupNodeID)
	}
	if _, err := s.nodeRepo.GetByID(ctx, req.DropoffNodeID); err != nil {
		return nil, common.NodeErr(err, req.DropoffNodeID)
	}

	o := &domainOrder.Order{
		Name:          utils.SanitizeString(req.Name),
		Description:   utils.SanitizeText(req.Description),
		WeightKg:      req.WeightKg,
		DeliveryPrice: DeliveryPrice(req.WeightKg),
		ProductPrice:  req.ProductPrice,
		Payer:         parsePayer(req.Payer),
		Status:        domainOrder.StatusPending,
		SenderID:      senderID,
		RecipientID:   req.RecipientID,
		PickupNodeID:  req.PickupNodeID,
		DropoffNodeID: req.DropoffNodeID,
	}

	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	logger.Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.String("sender_id", senderID.String()),
		zap.Float64("delivery_price", o.DeliveryPrice),
		zap.String("event", "order_created"),
	)

	s.events.Emit(events.Event{
		Type: events.OrderCreated,
		Key:  o.ID.String(),
		Payload: events.OrderCreatedEvent{
			OrderID:       o.ID,
			SenderID:      o.SenderID,
			RecipientID:   o.RecipientID,
			PickupNodeID:  o.PickupNodeID,
			DropoffNodeID: o.DropoffNodeID,
			DeliveryPrice: o.DeliveryPrice,
		},
	})

	return common.ToOrderResponse(o), nil
}

func parsePayer(v string) domainOrder.Payer {
	if strings.EqualFold(v, string(domainOrder.PayerRecipient)) {
		return domainOrder.PayerRecipient
	}
	return domainOrder.PayerSender
}

// Get returns the order to its sender, its recipient or an admin.
func (s *Service) Get(ctx context.Context, orderID, callerID uuid.UUID, callerRole string) (*common.OrderResponse, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, common.OrderErr(err, orderID)
	}

	if callerRole != domainUser.RoleAdmin && o.SenderID != callerID && o.RecipientID != callerID {
		return nil, appErrors.Forbidden("You are not a party to this order")
	}

	return common.ToOrderResponse(o), nil
}

func (s *Service) List(ctx context.Context, callerID uuid.UUID, q *ListOrdersQuery) (*OrderListResponse, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return nil, appErrors.Validation("Invalid query", err)
	}

	filter := &domainOrder.Filter{Page: q.Page, PageSize: q.PageSize}
	if q.Role == "received" {
		filter.RecipientID = &callerID
	} else {
		filter.SenderID = &callerID
	}
	if q.Status != "" {
		status := domainOrder.Status(q.Status)
		filter.Status = &status
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &OrderListResponse{
		Orders:   make([]*common.OrderResponse, len(orders)),
		Total:    total,
		Page:     max(q.Page, 1),
		PageSize: q.PageSize,
	}
	if resp.PageSize == 0 {
		resp.PageSize = 20
	}
	for i, o := range orders {
		resp.Orders[i] = common.ToOrderResponse(o)
	}
	return resp, nil
}
