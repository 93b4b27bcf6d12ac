package fleet

import (
	"strings"

	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"
)

// Phase is a delivery milestone reported by a robot.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseFlightToPickup
	PhaseAtPickup
	PhaseLoading
	PhaseFlightToDropoff
	PhaseAtDropoff
	PhaseUnloading
	PhasePackageDelivered
	PhaseFlightToCharging
)

var phaseNames = map[Phase]string{
	PhaseFlightToPickup:   "FLIGHT_TO_PICKUP",
	PhaseAtPickup:         "AT_PICKUP",
	PhaseLoading:          "LOADING",
	PhaseFlightToDropoff:  "FLIGHT_TO_DROPOFF",
	PhaseAtDropoff:        "AT_DROPOFF",
	PhaseUnloading:        "UNLOADING",
	PhasePackageDelivered: "PACKAGE_DELIVERED",
	PhaseFlightToCharging: "FLIGHT_TO_CHARGING",
}

var phasesByName = func() map[string]Phase {
	m := make(map[string]Phase, len(phaseNames))
	for p, name := range phaseNames {
		m[name] = p
	}
	return m
}()

// ParsePhase matches token case-insensitively. Unrecognised tokens yield
// PhaseUnknown.
func ParsePhase(token string) Phase {
	if p, ok := phasesByName[strings.ToUpper(strings.TrimSpace(token))]; ok {
		return p
	}
	return PhaseUnknown
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// effect is what a phase does to the order and the robot. A nil target
// leaves that side untouched.
type effect struct {
	order *order.Status
	robot *robot.Status
}

func orderTo(s order.Status) effect { return effect{order: &s} }

func robotTo(s robot.Status) effect { return effect{robot: &s} }

func (p Phase) effect() (effect, bool) {
	switch p {
	case PhaseFlightToPickup, PhaseAtPickup, PhaseLoading:
		return orderTo(order.StatusProcessing), true
	case PhaseFlightToDropoff, PhaseAtDropoff, PhaseUnloading:
		return orderTo(order.StatusEnRoute), true
	case PhasePackageDelivered:
		e := orderTo(order.StatusDelivered)
		idle := robot.StatusIdle
		e.robot = &idle
		return e, true
	case PhaseFlightToCharging:
		return robotTo(robot.StatusCharging), true
	case PhaseUnknown:
		return effect{}, false
	}
	return effect{}, false
}
