package service

import (
	"testing"

	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var gyros = &GyroGroup{
	AxisA:  powergrid.AxisPitch,
	AxisB:  powergrid.AxisYaw,
	Logger: zap.Must(zap.NewDevelopment()),
}

func genActuator(id string, roll, pitch, yaw float64) domain.ActuatorState {
	return domain.ActuatorState{
		ID:   id,
		Axes: [powergrid.AxisCount]float64{roll, pitch, yaw},
	}
}

var act = genActuator

func TestVerifyIdleGroup(t *testing.T) {
	assert.True(t, gyros.Verify([]domain.ActuatorState{
		act("GYRO_A", 0, 0, 0),
		act("GYRO_B", 0, 0, 0),
	}))
}

func TestVerifyCoherentGroup(t *testing.T) {

	require := require.New(t)

	group := []domain.ActuatorState{
		act("GYRO_A", 0, 0.05, 0),
		act("GYRO_B", 0, 0.05, 0),
		act("GYRO_C", 0, 0, 0),
	}
	require.True(gyros.Verify(group), "idle members do not contradict the group")

	axis, direction, moving := gyros.ActiveIntent(group)
	require.True(moving)
	require.Equal(powergrid.AxisPitch, axis)
	require.EqualValues(1, direction)
}

func TestVerifyRejectsMagnitudeDisagreement(t *testing.T) {
	assert.False(t, gyros.Verify([]domain.ActuatorState{
		act("GYRO_A", 0, 0.05, 0),
		act("GYRO_B", 0, 0.03, 0),
	}))
}

func TestVerifyRejectsOpposedDirections(t *testing.T) {
	assert.False(t, gyros.Verify([]domain.ActuatorState{
		act("GYRO_A", 0, 0.05, 0),
		act("GYRO_B", 0, -0.05, 0),
	}))
}

func TestVerifyRejectsTwoActiveAxes(t *testing.T) {
	assert.False(t, gyros.Verify([]domain.ActuatorState{
		act("GYRO_A", 0, 0.05, 0),
		act("GYRO_B", 0, 0, 0.05),
	}))
}

func TestVerifyRejectsPinnedAxisMotion(t *testing.T) {
	// roll is not one of the designated axes
	assert.False(t, gyros.Verify([]domain.ActuatorState{
		act("GYRO_A", 0.05, 0, 0),
		act("GYRO_B", 0.05, 0, 0),
	}))
}

func TestActiveIntentNegativeDirection(t *testing.T) {

	require := require.New(t)

	axis, direction, moving := gyros.ActiveIntent([]domain.ActuatorState{
		act("GYRO_A", 0, 0, -0.05),
	})
	require.True(moving)
	require.Equal(powergrid.AxisYaw, axis)
	require.EqualValues(-1, direction)
}

func TestActiveIntentIdle(t *testing.T) {
	_, _, moving := gyros.ActiveIntent([]domain.ActuatorState{act("GYRO_A", 0, 0, 0)})
	assert.False(t, moving)
}

func TestPlanRotationZeroesOtherAxes(t *testing.T) {

	values := PlanRotation(domain.RotateCommand{Axis: powergrid.AxisYaw, Direction: -1}, 0.05)
	assert.EqualValues(t, 0, values[powergrid.AxisRoll])
	assert.EqualValues(t, 0, values[powergrid.AxisPitch])
	assert.EqualValues(t, -0.05, values[powergrid.AxisYaw])
}
