package robot

import (
	"time"

	"robot-dispatch/internal/usecase/common"

	"github.com/google/uuid"
)

type RegisterRobotRequest struct {
	Name                  string     `json:"name" validate:"required,min=1,max=100"`
	Model                 string     `json:"model" validate:"max=100"`
	Kind                  string     `json:"kind" validate:"required,robot_kind"`
	SerialNumber          string     `json:"serial_number" validate:"required,min=3,max=100"`
	AccessKey             string     `json:"access_key" validate:"required,min=16,max=128"`
	BatteryCapacityJoules float64    `json:"battery_capacity_joules" validate:"omitempty,gt=0"`
	EnergyPerMeterJoules  float64    `json:"energy_per_meter_joules" validate:"omitempty,gt=0"`
	IPAddress             string     `json:"ip_address" validate:"omitempty,ip|hostname"`
	Port                  int        `json:"port" validate:"omitempty,min=1,max=65535"`
	CurrentNodeID         *uuid.UUID `json:"current_node_id"`
}

type ListRobotsQuery struct {
	Status string `form:"status" validate:"omitempty,robot_status"`
}

// SetStatusRequest is the administrative override.
type SetStatusRequest struct {
	Status       string   `json:"status" validate:"required,robot_status"`
	BatteryLevel *float64 `json:"battery_level" validate:"omitempty,gte=0,lte=100"`
}

// StatusReport is what a robot sends about itself.
type StatusReport struct {
	Status        string     `json:"status" validate:"required,robot_status"`
	BatteryLevel  float64    `json:"battery_level" validate:"gte=0,lte=100"`
	CurrentNodeID *uuid.UUID `json:"current_node_id"`
	TargetNodeID  *uuid.UUID `json:"target_node_id"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
}

type AuthRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	AccessKey    string `json:"access_key" validate:"required"`
}

type AuthResponse struct {
	Robot       *common.RobotResponse `json:"robot"`
	AccessToken string                `json:"access_token"`
	ExpiresAt   int64                 `json:"expires_at"`
}

type LiveState struct {
	RobotID       uuid.UUID  `json:"robot_id"`
	Status        string     `json:"status"`
	BatteryLevel  float64    `json:"battery_level"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	CurrentNodeID *uuid.UUID `json:"current_node_id,omitempty"`
	TargetNodeID  *uuid.UUID `json:"target_node_id,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeviceResult is the robot's reply to an out-of-band command.
type DeviceResult struct {
	RobotID      uuid.UUID `json:"robot_id"`
	Operation    string    `json:"operation"`
	Message      string    `json:"message,omitempty"`
	Status       string    `json:"status,omitempty"`
	BatteryLevel *float64  `json:"battery_level,omitempty"`
}
