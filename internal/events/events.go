package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated        Type = "order.created"
	OrderAssigned       Type = "order.assigned"
	OrderStatusChanged  Type = "order.status_changed"
	OrderCancelled      Type = "order.cancelled"
	RobotStatusChanged  Type = "robot.status_changed"
	PhaseReported       Type = "phase.reported"
	DeviceCommandFailed Type = "device.command_failed"
)

// Event is what travels over the bus and out to the brokers. Key orders
// related events on partitioned transports.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"`
	Payload   any       `json:"payload"`
}

// --- Event payloads ---

type OrderCreatedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	SenderID      uuid.UUID `json:"sender_id"`
	RecipientID   uuid.UUID `json:"recipient_id"`
	PickupNodeID  uuid.UUID `json:"pickup_node_id"`
	DropoffNodeID uuid.UUID `json:"dropoff_node_id"`
	DeliveryPrice float64   `json:"delivery_price"`
}

type OrderAssignedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	RobotID uuid.UUID `json:"robot_id"`
	Status  string    `json:"status"`
}

type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID  `json:"order_id"`
	RobotID   *uuid.UUID `json:"robot_id,omitempty"`
	OldStatus string     `json:"old_status"`
	NewStatus string     `json:"new_status"`
	Detail    string     `json:"detail,omitempty"`
}

type OrderCancelledEvent struct {
	OrderID  uuid.UUID  `json:"order_id"`
	RobotID  *uuid.UUID `json:"robot_id,omitempty"`
	SenderID uuid.UUID  `json:"sender_id"`
}

type RobotStatusChangedEvent struct {
	RobotID      uuid.UUID `json:"robot_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	BatteryLevel float64   `json:"battery_level"`
}

type PhaseReportedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	RobotID    uuid.UUID `json:"robot_id"`
	Phase      string    `json:"phase"`
	ReportedAt time.Time `json:"reported_at"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Message    *string   `json:"message,omitempty"`
}

type DeviceCommandFailedEvent struct {
	RobotID   uuid.UUID  `json:"robot_id"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Operation string     `json:"operation"`
	Error     string     `json:"error"`
}

// Emitter is what use cases publish through.
type Emitter interface {
	Emit(evt Event)
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

// Nop discards every event.
var Nop Emitter = nopEmitter{}

// OrEmpty returns e, or Nop when e is nil.
func OrEmpty(e Emitter) Emitter {
	if e == nil {
		return Nop
	}
	return e
}
