package dispatch

import (
	"robot-dispatch/internal/usecase/common"

	"github.com/google/uuid"
)

type AssignRequest struct {
	RobotID uuid.UUID `json:"robot_id" validate:"required"`
}

type AssignResponse struct {
	Order           *common.OrderResponse `json:"order"`
	Robot           *common.RobotResponse `json:"robot"`
	AlreadyAssigned bool                  `json:"already_assigned"`
	DeviceNotified  bool                  `json:"device_notified"`
	DeviceError     string                `json:"device_error,omitempty"`
}

const (
	SegmentTravelToPickup   = "travel_to_pickup"
	SegmentDeliverToDropoff = "deliver_to_dropoff"
)

type RouteSegment struct {
	Kind           string  `json:"kind"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	DistanceMeters float64 `json:"distance_meters"`
	BatteryPercent float64 `json:"battery_percent"`
}

type Route struct {
	Segments         []RouteSegment `json:"segments"`
	TotalDistance    float64        `json:"total_distance_meters"`
	EstimatedBattery float64        `json:"estimated_battery_percent"`
}

type ExecuteResponse struct {
	AssignResponse
	Route Route `json:"route"`
}

type CancelResponse struct {
	Order         *common.OrderResponse `json:"order"`
	RobotReleased bool                  `json:"robot_released"`
}
