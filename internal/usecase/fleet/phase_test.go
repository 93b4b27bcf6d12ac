package fleet

import (
	"testing"

	"robot-dispatch/internal/domain/order"
	"robot-dispatch/internal/domain/robot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhaseIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, PhaseAtPickup, ParsePhase("at_pickup"))
	assert.Equal(t, PhasePackageDelivered, ParsePhase(" Package_Delivered "))
	assert.Equal(t, PhaseUnknown, ParsePhase("TELEPORTING"))
	assert.Equal(t, PhaseUnknown, ParsePhase(""))
}

func TestPhaseStringRoundTrips(t *testing.T) {
	for p := PhaseFlightToPickup; p <= PhaseFlightToCharging; p++ {
		assert.Equal(t, p, ParsePhase(p.String()))
	}
	assert.Equal(t, "UNKNOWN", PhaseUnknown.String())
}

func TestPhaseEffects(t *testing.T) {
	tests := []struct {
		phase     Phase
		wantOrder *order.Status
		wantRobot *robot.Status
	}{
		{PhaseFlightToPickup, statusPtr(order.StatusProcessing), nil},
		{PhaseAtPickup, statusPtr(order.StatusProcessing), nil},
		{PhaseLoading, statusPtr(order.StatusProcessing), nil},
		{PhaseFlightToDropoff, statusPtr(order.StatusEnRoute), nil},
		{PhaseAtDropoff, statusPtr(order.StatusEnRoute), nil},
		{PhaseUnloading, statusPtr(order.StatusEnRoute), nil},
		{PhasePackageDelivered, statusPtr(order.StatusDelivered), robotPtr(robot.StatusIdle)},
		{PhaseFlightToCharging, nil, robotPtr(robot.StatusCharging)},
	}

	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			eff, ok := tt.phase.effect()
			require.True(t, ok)
			assert.Equal(t, tt.wantOrder, eff.order)
			assert.Equal(t, tt.wantRobot, eff.robot)
		})
	}

	_, ok := PhaseUnknown.effect()
	assert.False(t, ok)
}

func statusPtr(s order.Status) *order.Status { return &s }

func robotPtr(s robot.Status) *robot.Status { return &s }
