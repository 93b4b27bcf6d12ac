package robot

import (
	"time"

	"robot-dispatch/internal/geo"

	"github.com/google/uuid"
)

// Status represents the operational status of a robot
type Status string

const (
	StatusIdle        Status = "Idle"
	StatusDelivering  Status = "Delivering"
	StatusCharging    Status = "Charging"
	StatusMaintenance Status = "Maintenance"
)

// Kind distinguishes ground couriers from drones
type Kind string

const (
	KindGroundCourier Kind = "GroundCourier"
	KindDrone         Kind = "Drone"
)

func (k Kind) IsValid() bool {
	return k == KindGroundCourier || k == KindDrone
}

// Robot represents a dispatchable delivery unit
type Robot struct {
	ID            uuid.UUID
	Name          string
	Model         string
	Kind          Kind
	SerialNumber  string
	AccessKeyHash string

	Status       Status
	BatteryLevel float64

	// Energy characteristics
	BatteryCapacityJoules float64
	EnergyPerMeterJoules  float64

	// Out-of-band command endpoint
	IPAddress string
	Port      int

	// Position
	CurrentNodeID    *uuid.UUID
	CurrentLatitude  *float64
	CurrentLongitude *float64
	TargetNodeID     *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EnergyProfile returns the estimator inputs for this robot.
func (r *Robot) EnergyProfile() geo.EnergyProfile {
	return geo.EnergyProfile{
		BatteryCapacityJoules: r.BatteryCapacityJoules,
		EnergyPerMeterJoules:  r.EnergyPerMeterJoules,
	}
}

// LivePosition returns the raw coordinates last reported by the robot.
func (r *Robot) LivePosition() (geo.Point, bool) {
	if r.CurrentLatitude == nil || r.CurrentLongitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Latitude: *r.CurrentLatitude, Longitude: *r.CurrentLongitude}, true
}

// SetLivePosition overwrites the live coordinates. The robot is no longer
// parked at a node, so CurrentNodeID is cleared.
func (r *Robot) SetLivePosition(lat, lon float64) {
	r.CurrentLatitude = &lat
	r.CurrentLongitude = &lon
	r.CurrentNodeID = nil
}

// HasDeviceEndpoint reports whether out-of-band commands can reach the robot.
func (r *Robot) HasDeviceEndpoint() bool {
	return r.IPAddress != "" && r.Port > 0
}
