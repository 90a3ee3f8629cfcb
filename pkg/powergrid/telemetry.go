package powergrid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// quantity counts per recognized status shape
const (
	solarShapeQuantities   = 2
	storageShapeQuantities = 6
)

// chargeModeMarker appears in a storage cell's status text only while the
// cell is set to receive charge.
const chargeModeMarker = "Fully recharged in"

var ErrUnrecognizedStatus = errors.New("powergrid: unrecognized status text")

// label, decimal mantissa, optional magnitude prefix, unit suffix
var quantityRegexp = regexp.MustCompile(`:\s*([0-9]+(?:\.[0-9]+)?)\s*([kMGTPEZY]?)Wh?`)

// PowerReading is a device status normalized to watts (watt-hours for
// stored energy). Input and stored fields are only meaningful for the
// storage shape.
type PowerReading struct {
	MaxOutputWatt     float64
	CurrentOutputWatt float64

	MaxInputWatt          float64
	CurrentInputWatt      float64
	MaxStoredWattHour     float64
	CurrentStoredWattHour float64

	// HasStorage is true for the 6-quantity storage shape.
	HasStorage bool
}

func (r PowerReading) SpareOutputWatt() float64 {
	return r.MaxOutputWatt - r.CurrentOutputWatt
}

func (r PowerReading) SpareInputWatt() float64 {
	return r.MaxInputWatt - r.CurrentInputWatt
}

func (r PowerReading) Full() bool {
	return r.HasStorage && r.CurrentStoredWattHour >= r.MaxStoredWattHour
}

func (r PowerReading) Empty() bool {
	return !r.HasStorage || r.CurrentStoredWattHour <= 0
}

// ParseStatusText extracts the ordered magnitude-prefixed quantities of a
// device status block. Two shapes are recognized: the 2-quantity solar
// shape (max output, current output) and the 6-quantity storage shape
// (max output, max required input, max stored, current input, current
// output, current stored). Any other shape is an error; callers must
// exclude the device from this tick's aggregation, never treat it as
// a zero reading.
func ParseStatusText(text string) (*PowerReading, error) {
	matches := quantityRegexp.FindAllStringSubmatch(text, -1)
	values := make([]float64, 0, len(matches))
	for _, m := range matches {
		mantissa, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad mantissa %q", ErrUnrecognizedStatus, m[1])
		}
		values = append(values, mantissa*prefixMultiplier(m[2]))
	}
	switch len(values) {
	case solarShapeQuantities:
		return &PowerReading{
			MaxOutputWatt:     values[0],
			CurrentOutputWatt: values[1],
		}, nil
	case storageShapeQuantities:
		return &PowerReading{
			MaxOutputWatt:         values[0],
			MaxInputWatt:          values[1],
			MaxStoredWattHour:     values[2],
			CurrentInputWatt:      values[3],
			CurrentOutputWatt:     values[4],
			CurrentStoredWattHour: values[5],
			HasStorage:            true,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d quantities", ErrUnrecognizedStatus, len(values))
	}
}

// CellSetToCharge reports whether the cell's status text carries the
// recharge marker. The marker is the ground truth for charge direction.
func CellSetToCharge(statusText string) bool {
	return strings.Contains(statusText, chargeModeMarker)
}

func prefixMultiplier(prefix string) float64 {
	switch prefix {
	case "":
		return 1
	case "k":
		return 1e3
	case "M":
		return 1e6
	case "G":
		return 1e9
	case "T":
		return 1e12
	case "P":
		return 1e15
	case "E":
		return 1e18
	case "Z":
		return 1e21
	case "Y":
		return 1e24
	default:
		return 1
	}
}

var magnitudePrefixes = []string{"", "k", "M", "G", "T", "P", "E", "Z", "Y"}

// FormatPower renders watts the way the host reports them, e.g.
// "118.00 kW". Used by the simulated grid to produce status text.
func FormatPower(watt float64) string {
	return formatScaled(watt, "W")
}

// FormatStoredEnergy renders watt-hours, e.g. "3.00 MWh".
func FormatStoredEnergy(wattHour float64) string {
	return formatScaled(wattHour, "Wh")
}

func formatScaled(value float64, unit string) string {
	idx := 0
	for value >= 1000 && idx < len(magnitudePrefixes)-1 {
		value /= 1000
		idx++
	}
	return fmt.Sprintf("%.2f %s%s", value, magnitudePrefixes[idx], unit)
}
