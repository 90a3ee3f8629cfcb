package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignmentStateRoundTrip(t *testing.T) {

	require := require.New(t)

	cases := []AlignmentState{
		{},
		{LastPowerWatt: 95.32, HighestPowerWatt: 118},
		{LastPowerWatt: 0.001, HighestPowerWatt: 4.32e6},
	}
	for _, state := range cases {
		decoded := DecodeAlignmentState(state.Encode())
		require.Equal(state, decoded)
	}
}

func TestDecodeEmptyIsZeroState(t *testing.T) {

	state := DecodeAlignmentState("")
	assert.True(t, state.IsZero())
}

func TestDecodeMalformedSegmentDefaultsToZero(t *testing.T) {

	state := DecodeAlignmentState("garbage|3.0")
	assert.EqualValues(t, 0, state.LastPowerWatt)
	assert.EqualValues(t, 3.0, state.HighestPowerWatt)

	state = DecodeAlignmentState("2.5|what")
	assert.EqualValues(t, 2.5, state.LastPowerWatt)
	assert.EqualValues(t, 0, state.HighestPowerWatt)

	state = DecodeAlignmentState("2.5")
	assert.EqualValues(t, 2.5, state.LastPowerWatt)
	assert.EqualValues(t, 0, state.HighestPowerWatt)
}

func TestStorageInputShortfallAlwaysReadsZero(t *testing.T) {

	budget := PowerBudget{
		LocalMaxInput:     4_320_000,
		LocalCurrentInput: 1_500_000,
	}
	assert.EqualValues(t, 0, budget.StorageInputShortfallWatt())
}
