package service

import (
	"testing"

	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var climber = &DefaultAlignmentLogic{
	AxisA:        powergrid.AxisPitch,
	AxisB:        powergrid.AxisYaw,
	AutoOverride: true,
	Logger:       zap.Must(zap.NewDevelopment()),
}

func sampleMoving(power, target float64, axis powergrid.Axis, direction float64) domain.AlignmentSample {
	return domain.AlignmentSample{
		CurrentPowerWatt: power,
		TargetPowerWatt:  target,
		Verified:         true,
		Moving:           true,
		ActiveAxis:       axis,
		ActiveDirection:  direction,
	}
}

func sampleIdle(power, target float64) domain.AlignmentSample {
	return domain.AlignmentSample{
		CurrentPowerWatt: power,
		TargetPowerWatt:  target,
		Verified:         true,
	}
}

func TestResetOnVerificationFailure(t *testing.T) {

	require := require.New(t)

	r := climber.Tick(domain.AlignmentState{LastPowerWatt: 5, HighestPowerWatt: 8},
		domain.AlignmentSample{CurrentPowerWatt: 6, TargetPowerWatt: 10, Verified: false})
	require.True(r.ZeroAxes)
	require.True(r.State.IsZero())
	require.Nil(r.Rotate, "no rotation command on the reset tick")
}

func TestStopsAndStaysStoppedAtTarget(t *testing.T) {

	require := require.New(t)

	// tick N: power reaches target mid-climb
	r := climber.Tick(domain.AlignmentState{LastPowerWatt: 90, HighestPowerWatt: 90},
		sampleMoving(101, 100, powergrid.AxisPitch, 1))
	require.True(r.AtTarget)
	require.True(r.ZeroAxes)
	require.True(r.State.IsZero())
	require.True(r.ReleaseOverride)

	// tick N+1: power still at target, state stays cleared
	r = climber.Tick(r.State, sampleIdle(102, 100))
	require.True(r.AtTarget)
	require.True(r.State.IsZero())
}

func TestColdStartBeginsOnAxisA(t *testing.T) {

	require := require.New(t)

	r := climber.Tick(domain.AlignmentState{}, sampleIdle(40, 100))
	require.False(r.AtTarget)
	require.True(r.ZeroAxes, "axes re-zeroed for safety before committing")
	require.NotNil(r.Rotate)
	require.Equal(powergrid.AxisPitch, r.Rotate.Axis)
	require.EqualValues(1, r.Rotate.Direction)
	require.True(r.AcquireOverride)
	require.EqualValues(40, r.State.LastPowerWatt)
	require.EqualValues(0, r.State.HighestPowerWatt)
}

func TestFirstSampleOfLegIsIgnored(t *testing.T) {

	require := require.New(t)

	// both persisted values zero: a single sample must not trigger a
	// direction change
	r := climber.Tick(domain.AlignmentState{}, sampleMoving(40, 100, powergrid.AxisPitch, 1))
	require.Nil(r.Rotate)
	require.False(r.ZeroAxes)
	require.EqualValues(40, r.State.LastPowerWatt)
	require.EqualValues(0, r.State.HighestPowerWatt)
}

func TestReversesOnImmediateDrop(t *testing.T) {

	require := require.New(t)

	// highest still zero and power fell below last: the guessed
	// direction was wrong
	r := climber.Tick(domain.AlignmentState{LastPowerWatt: 40},
		sampleMoving(35, 100, powergrid.AxisPitch, 1))
	require.NotNil(r.Rotate)
	require.Equal(powergrid.AxisPitch, r.Rotate.Axis)
	require.EqualValues(-1, r.Rotate.Direction)
}

func TestHighestPowerIsMonotonicWithinLeg(t *testing.T) {

	require := require.New(t)

	state := domain.AlignmentState{}
	highest := 0.0
	for _, power := range []float64{10, 12, 15, 15, 21, 30} {
		r := climber.Tick(state, sampleMoving(power, 100, powergrid.AxisYaw, 1))
		require.Nil(r.Rotate, "no direction change while improving")
		require.GreaterOrEqual(r.State.HighestPowerWatt, highest)
		highest = r.State.HighestPowerWatt
		state = r.State
	}
	require.EqualValues(30, state.HighestPowerWatt)
}

func TestSwitchesAxisAfterPassingPeak(t *testing.T) {

	require := require.New(t)

	// samples 5, 8, 6 while moving on axis A: the drop after an
	// improvement must hand control to axis B and clear the record
	state := domain.AlignmentState{}

	r := climber.Tick(state, sampleMoving(5, 100, powergrid.AxisPitch, 1))
	require.Nil(r.Rotate)
	state = r.State

	r = climber.Tick(state, sampleMoving(8, 100, powergrid.AxisPitch, 1))
	require.Nil(r.Rotate)
	require.EqualValues(8, r.State.HighestPowerWatt)
	state = r.State

	r = climber.Tick(state, sampleMoving(6, 100, powergrid.AxisPitch, 1))
	require.NotNil(r.Rotate)
	require.Equal(powergrid.AxisYaw, r.Rotate.Axis)
	require.EqualValues(1, r.Rotate.Direction)
	require.True(r.State.IsZero())
}

func TestSwitchesBackToAxisAFromAxisB(t *testing.T) {

	require := require.New(t)

	r := climber.Tick(domain.AlignmentState{LastPowerWatt: 8, HighestPowerWatt: 8},
		sampleMoving(6, 100, powergrid.AxisYaw, 1))
	require.NotNil(r.Rotate)
	require.Equal(powergrid.AxisPitch, r.Rotate.Axis)
	require.EqualValues(1, r.Rotate.Direction)
	require.True(r.State.IsZero())
}

func TestNoOverrideFlagsWhenAutoOverrideDisabled(t *testing.T) {

	manual := &DefaultAlignmentLogic{
		AxisA:  powergrid.AxisPitch,
		AxisB:  powergrid.AxisYaw,
		Logger: zap.NewNop(),
	}

	r := manual.Tick(domain.AlignmentState{}, sampleIdle(40, 100))
	assert.False(t, r.AcquireOverride)

	r = manual.Tick(domain.AlignmentState{}, sampleIdle(101, 100))
	assert.False(t, r.ReleaseOverride)
}
