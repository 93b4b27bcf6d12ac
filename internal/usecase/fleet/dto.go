package fleet

import (
	"time"

	"robot-dispatch/internal/usecase/common"

	"github.com/google/uuid"
)

type Waypoint struct {
	Sequence       int       `json:"sequence"`
	NodeID         uuid.UUID `json:"node_id"`
	Name           string    `json:"name"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DistanceMeters float64   `json:"distance_meters"`
}

type OrderAssignment struct {
	Order            *common.OrderResponse `json:"order"`
	Pickup           *common.NodeResponse  `json:"pickup"`
	Dropoff          *common.NodeResponse  `json:"dropoff"`
	Route            []Waypoint            `json:"route"`
	DistanceMeters   float64               `json:"distance_meters"`
	EstimatedBattery float64               `json:"estimated_battery_percent"`
}

type AssignmentQueue struct {
	RobotID          uuid.UUID          `json:"robot_id"`
	BatteryLevel     float64            `json:"battery_level"`
	Orders           []*OrderAssignment `json:"orders"`
	TotalDistance    float64            `json:"total_distance_meters"`
	EstimatedBattery float64            `json:"estimated_battery_percent"`
}

type AcceptResult struct {
	Order           *common.OrderResponse `json:"order"`
	AlreadyAccepted bool                  `json:"already_accepted"`
}

// PhaseReport is the body robots post for each milestone. Latitude and
// longitude come together or not at all.
type PhaseReport struct {
	Phase     string    `json:"phase" validate:"required,max=64"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Message   *string   `json:"message" validate:"omitempty,max=1000"`
}

type PhaseResult struct {
	Order       *common.OrderResponse `json:"order"`
	Phase       string                `json:"phase"`
	RobotStatus string                `json:"robot_status"`
	Changed     bool                  `json:"changed"`
}
