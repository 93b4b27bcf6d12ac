package order

import (
	"time"

	appErrors "robot-dispatch/pkg/errors"
)

// State machine for order status transitions
var validTransitions = map[Status][]Status{
	StatusPending: {
		StatusProcessing,
		StatusCancelled,
	},
	StatusProcessing: {
		StatusEnRoute,
		StatusCancelled,
	},
	StatusEnRoute: {
		StatusDelivered,
		StatusCancelled,
	},
	StatusDelivered: {
		// Terminal state - no transitions
	},
	StatusCancelled: {
		// Terminal state - no transitions
	},
}

// ValidateStatusTransition checks if status transition is allowed
func ValidateStatusTransition(currentStatus, newStatus Status) error {
	allowedStatuses, exists := validTransitions[currentStatus]
	if !exists {
		return appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			"Unknown current status: "+string(currentStatus),
			nil,
		)
	}

	for _, allowed := range allowedStatuses {
		if newStatus == allowed {
			return nil
		}
	}

	return appErrors.InvalidTransition(string(currentStatus), string(newStatus))
}

// GetAllowedTransitions returns allowed next statuses
func GetAllowedTransitions(currentStatus Status) []Status {
	return validTransitions[currentStatus]
}

// TransitionTo applies a table transition and stamps CompletedAt on terminal states.
func (o *Order) TransitionTo(next Status, now time.Time) error {
	if err := ValidateStatusTransition(o.Status, next); err != nil {
		return err
	}

	o.Status = next
	o.UpdatedAt = now
	if next.IsTerminal() {
		completed := now
		o.CompletedAt = &completed
	}

	return nil
}

// Advance is TransitionTo that treats a report of the current status as a
// no-op, so repeated phase reports are accepted. It returns whether the
// status changed.
func (o *Order) Advance(next Status, now time.Time) (bool, error) {
	if o.Status == next {
		return false, nil
	}
	if err := o.TransitionTo(next, now); err != nil {
		return false, err
	}
	return true, nil
}
