package robot

import (
	"fmt"
	"time"

	appErrors "robot-dispatch/pkg/errors"
)

// MinDispatchBattery is the battery floor, in percent, for accepting new work.
const MinDispatchBattery = 20.0

var knownStatuses = map[Status]struct{}{
	StatusIdle:        {},
	StatusDelivering:  {},
	StatusCharging:    {},
	StatusMaintenance: {},
}

func (s Status) IsValid() bool {
	_, ok := knownStatuses[s]
	return ok
}

func ValidateBatteryLevel(level float64) error {
	if level < 0 || level > 100 {
		return appErrors.Validation(fmt.Sprintf("battery level %.2f out of range [0, 100]", level), nil)
	}
	return nil
}

// CheckDispatchable verifies the robot may take a new assignment.
func (r *Robot) CheckDispatchable() error {
	if r.Status != StatusIdle {
		return appErrors.Unavailable(r.ID, string(r.Status))
	}
	if r.BatteryLevel < MinDispatchBattery {
		return appErrors.InsufficientBattery(r.ID, r.BatteryLevel)
	}
	return nil
}

// StartDelivering flips an Idle robot to Delivering.
func (r *Robot) StartDelivering(now time.Time) error {
	if r.Status != StatusIdle {
		return appErrors.Unavailable(r.ID, string(r.Status))
	}
	r.Status = StatusDelivering
	r.UpdatedAt = now
	return nil
}

// Release returns a Delivering robot to Idle once it holds no active orders.
// It reports whether the status changed.
func (r *Robot) Release(activeOrders int64, now time.Time) bool {
	if r.Status != StatusDelivering || activeOrders > 0 {
		return false
	}
	r.Status = StatusIdle
	r.UpdatedAt = now
	return true
}

// HeadToCharging moves the robot to Charging from any status, provided it
// holds no active orders.
func (r *Robot) HeadToCharging(activeOrders int64, now time.Time) (bool, error) {
	if activeOrders > 0 {
		return false, appErrors.InvalidTransition(string(r.Status), string(StatusCharging))
	}
	if r.Status == StatusCharging {
		return false, nil
	}
	r.Status = StatusCharging
	r.UpdatedAt = now
	return true, nil
}

// ReportStatus applies a status reported by the robot itself. Delivering
// must coincide with holding active orders.
func (r *Robot) ReportStatus(next Status, activeOrders int64, now time.Time) (bool, error) {
	if !next.IsValid() {
		return false, appErrors.Validation(fmt.Sprintf("unknown robot status %q", next), nil)
	}
	if next == r.Status {
		return false, nil
	}
	if (next == StatusDelivering) != (activeOrders > 0) {
		return false, appErrors.InvalidTransition(string(r.Status), string(next))
	}
	r.Status = next
	r.UpdatedAt = now
	return true, nil
}

// SetStatus is the administrative override; any known status is accepted.
func (r *Robot) SetStatus(next Status, now time.Time) error {
	if !next.IsValid() {
		return appErrors.Validation(fmt.Sprintf("unknown robot status %q", next), nil)
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}
