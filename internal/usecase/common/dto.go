package common

import (
	"time"

	"robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"

	"github.com/google/uuid"
)

type OrderResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	WeightKg       float64    `json:"weight_kg"`
	DeliveryPrice  float64    `json:"delivery_price"`
	ProductPrice   float64    `json:"product_price"`
	IsProductPaid  bool       `json:"is_product_paid"`
	IsDeliveryPaid bool       `json:"is_delivery_paid"`
	Payer          string     `json:"payer"`
	Status         string     `json:"status"`
	SenderID       uuid.UUID  `json:"sender_id"`
	RecipientID    uuid.UUID  `json:"recipient_id"`
	PickupNodeID   uuid.UUID  `json:"pickup_node_id"`
	DropoffNodeID  uuid.UUID  `json:"dropoff_node_id"`
	RobotID        *uuid.UUID `json:"robot_id,omitempty"`
	LastPhase      *string    `json:"last_phase,omitempty"`
	LastPhaseAt    *time.Time `json:"last_phase_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func ToOrderResponse(o *order.Order) *OrderResponse {
	if o == nil {
		return nil
	}
	return &OrderResponse{
		ID:             o.ID,
		Name:           o.Name,
		Description:    o.Description,
		WeightKg:       o.WeightKg,
		DeliveryPrice:  o.DeliveryPrice,
		ProductPrice:   o.ProductPrice,
		IsProductPaid:  o.IsProductPaid,
		IsDeliveryPaid: o.IsDeliveryPaid,
		Payer:          string(o.Payer),
		Status:         string(o.Status),
		SenderID:       o.SenderID,
		RecipientID:    o.RecipientID,
		PickupNodeID:   o.PickupNodeID,
		DropoffNodeID:  o.DropoffNodeID,
		RobotID:        o.RobotID,
		LastPhase:      o.LastPhase,
		LastPhaseAt:    o.LastPhaseAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		CompletedAt:    o.CompletedAt,
	}
}

type RobotResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Model                 string     `json:"model"`
	Kind                  string     `json:"kind"`
	SerialNumber          string     `json:"serial_number"`
	Status                string     `json:"status"`
	BatteryLevel          float64    `json:"battery_level"`
	BatteryCapacityJoules float64    `json:"battery_capacity_joules"`
	EnergyPerMeterJoules  float64    `json:"energy_per_meter_joules"`
	IPAddress             string     `json:"ip_address,omitempty"`
	Port                  int        `json:"port,omitempty"`
	CurrentNodeID         *uuid.UUID `json:"current_node_id,omitempty"`
	CurrentLatitude       *float64   `json:"current_latitude,omitempty"`
	CurrentLongitude      *float64   `json:"current_longitude,omitempty"`
	TargetNodeID          *uuid.UUID `json:"target_node_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func ToRobotResponse(r *robot.Robot) *RobotResponse {
	if r == nil {
		return nil
	}
	return &RobotResponse{
		ID:                    r.ID,
		Name:                  r.Name,
		Model:                 r.Model,
		Kind:                  string(r.Kind),
		SerialNumber:          r.SerialNumber,
		Status:                string(r.Status),
		BatteryLevel:          r.BatteryLevel,
		BatteryCapacityJoules: r.BatteryCapacityJoules,
		EnergyPerMeterJoules:  r.EnergyPerMeterJoules,
		IPAddress:             r.IPAddress,
		Port:                  r.Port,
		CurrentNodeID:         r.CurrentNodeID,
		CurrentLatitude:       r.CurrentLatitude,
		CurrentLongitude:      r.CurrentLongitude,
		TargetNodeID:          r.TargetNodeID,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

type NodeResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Type      string    `json:"type"`
}

func ToNodeResponse(n *node.Node) *NodeResponse {
	if n == nil {
		return nil
	}
	return &NodeResponse{
		ID:        n.ID,
		Name:      n.Name,
		Latitude:  n.Latitude,
		Longitude: n.Longitude,
		Type:      string(n.Type),
	}
}
