package powergrid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSolarStatus(t *testing.T) {

	require := require.New(t)

	reading, err := ParseStatusText("Type: Solar Panel\nMax Output: 118.00 kW\nCurrent Output: 95.32 kW")
	require.NoError(err)
	require.False(reading.HasStorage)
	assert.InDelta(t, 118000, reading.MaxOutputWatt, 0.01)
	assert.InDelta(t, 95320, reading.CurrentOutputWatt, 0.01)
}

func TestParseStorageStatus(t *testing.T) {

	require := require.New(t)

	text := "Type: Battery\nMax Output: 0.00 kW\nMax Required Input: 4320.00 kW\nMax Stored Power: 12.00 MWh\nCurrent Input: 0.00 kW\nCurrent Output: 2.50 kW\nStored power: 6.00 MWh"
	reading, err := ParseStatusText(text)
	require.NoError(err)
	require.True(reading.HasStorage)
	assert.InDelta(t, 0, reading.MaxOutputWatt, 0.01)
	assert.InDelta(t, 4320000, reading.MaxInputWatt, 0.01)
	assert.InDelta(t, 12e6, reading.MaxStoredWattHour, 0.01)
	assert.InDelta(t, 0, reading.CurrentInputWatt, 0.01)
	assert.InDelta(t, 2500, reading.CurrentOutputWatt, 0.01)
	assert.InDelta(t, 6e6, reading.CurrentStoredWattHour, 0.01)
	assert.False(t, reading.Full())
	assert.InDelta(t, 4320000, reading.SpareInputWatt(), 0.01)
}

func TestMagnitudePrefixScaling(t *testing.T) {

	require := require.New(t)

	cases := map[string]float64{
		"":  1.5,
		"k": 1.5e3,
		"M": 1.5e6,
		"G": 1.5e9,
		"T": 1.5e12,
		"P": 1.5e15,
		"E": 1.5e18,
		"Z": 1.5e21,
		"Y": 1.5e24,
	}
	for prefix, expected := range cases {
		text := fmt.Sprintf("Max Output: 1.5 %sW\nCurrent Output: 1.5 %sW", prefix, prefix)
		reading, err := ParseStatusText(text)
		require.NoError(err, "prefix %q", prefix)
		// relative tolerance: the large prefixes exceed float64 integer range
		assert.InEpsilon(t, expected, reading.MaxOutputWatt, 1e-9, "prefix %q", prefix)
	}
}

func TestParseFailureIsNeverZero(t *testing.T) {

	require := require.New(t)

	reading, err := ParseStatusText("Type: Battery\nno readings available")
	require.ErrorIs(err, ErrUnrecognizedStatus)
	require.Nil(reading)

	// wrong quantity count is also a failed parse
	reading, err = ParseStatusText("Max Output: 1.00 kW")
	require.ErrorIs(err, ErrUnrecognizedStatus)
	require.Nil(reading)
}

func TestChargeMarker(t *testing.T) {

	cell := &TestCell{Id: "b1", CapacityWh: 1000, StoredWh: 500, ChargeFlag: true}
	assert.True(t, CellSetToCharge(cell.StatusText()))

	cell.ChargeFlag = false
	assert.False(t, CellSetToCharge(cell.StatusText()))
}

func TestFormatRoundTrip(t *testing.T) {

	require := require.New(t)

	text := fmt.Sprintf("Max Output: %s\nCurrent Output: %s", FormatPower(118000), FormatPower(95.5))
	reading, err := ParseStatusText(text)
	require.NoError(err)
	assert.InDelta(t, 118000, reading.MaxOutputWatt, 0.01)
	assert.InDelta(t, 95.5, reading.CurrentOutputWatt, 0.01)
}
