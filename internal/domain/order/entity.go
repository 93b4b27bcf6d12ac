package order

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a delivery order
type Status string

const (
	StatusPending    Status = "Pending"    // Created by the sender, not yet dispatched
	StatusProcessing Status = "Processing" // Robot assigned or heading to pickup
	StatusEnRoute    Status = "EnRoute"    // Package loaded, heading to dropoff
	StatusDelivered  Status = "Delivered"  // Package handed over
	StatusCancelled  Status = "Cancelled"  // Cancelled by the sender
)

// Payer designates who pays for the delivery
type Payer string

const (
	PayerSender    Payer = "Sender"
	PayerRecipient Payer = "Recipient"
)

func (p Payer) IsValid() bool {
	return p == PayerSender || p == PayerRecipient
}

// Order represents a delivery request between two nodes
type Order struct {
	ID uuid.UUID

	Name        string
	Description string
	WeightKg    float64

	DeliveryPrice  float64
	ProductPrice   float64
	IsProductPaid  bool
	IsDeliveryPaid bool
	Payer          Payer

	Status Status

	// Parties involved
	SenderID    uuid.UUID
	RecipientID uuid.UUID

	PickupNodeID  uuid.UUID
	DropoffNodeID uuid.UUID

	// Robot assignment
	RobotID *uuid.UUID

	// Last phase reported by the robot
	LastPhase   *string
	LastPhaseAt *time.Time

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsActive reports whether an order in this status keeps its robot busy.
func (s Status) IsActive() bool {
	return s == StatusProcessing || s == StatusEnRoute
}

func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsAssignedTo reports whether the order is bound to robotID.
func (o *Order) IsAssignedTo(robotID uuid.UUID) bool {
	return o.RobotID != nil && *o.RobotID == robotID
}
