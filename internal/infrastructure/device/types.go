package device

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Endpoint addresses a robot's on-board command server.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

type Waypoint struct {
	NodeID    uuid.UUID `json:"nodeId"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// DeliveryCommand is pushed to the robot once an order is bound to it.
type DeliveryCommand struct {
	OrderID  uuid.UUID `json:"orderId"`
	Action   string    `json:"action"`
	Pickup   Waypoint  `json:"pickup"`
	Dropoff  Waypoint  `json:"dropoff"`
	Weight   float64   `json:"weight"`
	IssuedAt time.Time `json:"issuedAt"`
}

const ActionDeliver = "deliver"

// Reply is the envelope every device endpoint answers with.
type Reply struct {
	Success             bool     `json:"success"`
	Message             string   `json:"message"`
	OrderID             string   `json:"orderId,omitempty"`
	CurrentBatteryLevel *float64 `json:"currentBatteryLevel,omitempty"`
	Status              string   `json:"status,omitempty"`
}
