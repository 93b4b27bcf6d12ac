package order

import (
	"robot-dispatch/internal/usecase/common"

	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	RecipientID   uuid.UUID `json:"recipient_id" validate:"required"`
	Name          string    `json:"name" validate:"required,min=1,max=255"`
	Description   string    `json:"description" validate:"max=2000"`
	WeightKg      float64   `json:"weight_kg" validate:"gt=0,lte=1000"`
	ProductPrice  float64   `json:"product_price" validate:"gte=0"`
	Payer         string    `json:"payer" validate:"required,payer"`
	PickupNodeID  uuid.UUID `json:"pickup_node_id" validate:"required"`
	DropoffNodeID uuid.UUID `json:"dropoff_node_id" validate:"required"`
}

// ListOrdersQuery selects the caller's orders. Role is "sent" or "received".
type ListOrdersQuery struct {
	Role     string `form:"role" validate:"omitempty,oneof=sent received"`
	Status   string `form:"status" validate:"omitempty,oneof=Pending Processing EnRoute Delivered Cancelled"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type OrderListResponse struct {
	Orders   []*common.OrderResponse `json:"orders"`
	Total    int64                   `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}
