package powergrid

import (
	"errors"
	"fmt"
	"strings"
)

// rotation axes
const (
	AxisRoll Axis = iota
	AxisPitch
	AxisYaw
)

const AxisCount = 3

type Axis int

func (a Axis) String() string {
	switch a {
	case AxisRoll:
		return "roll"
	case AxisPitch:
		return "pitch"
	case AxisYaw:
		return "yaw"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "roll":
		return AxisRoll, nil
	case "pitch":
		return AxisPitch, nil
	case "yaw":
		return AxisYaw, nil
	default:
		return 0, fmt.Errorf("invalid axis %q", s)
	}
}

var (
	ErrNoActuators    = errors.New("powergrid: no rotation actuators on grid")
	ErrNoSolarSources = errors.New("powergrid: no solar sources on grid")
)

// Device is the minimal handle every grid device exposes.
type Device interface {
	ID() string
	Name() string
}

// PowerSource is a read-only producer. Its status text follows the
// 2-quantity shape parsed by ParseStatusText.
type PowerSource interface {
	Device
	StatusText() string
}

// StorageCell is a cell that can be commanded to draw or supply power.
// Whether the cell is currently set to receive charge is read from its
// status text (see CellSetToCharge), never from a cached flag.
type StorageCell interface {
	Device
	StatusText() string
	Enabled() bool
	SetEnabled(enabled bool) error
	SetChargeMode(charge bool) error
}

// RotationActuator rotates the vehicle body around one axis at a
// controllable rate.
type RotationActuator interface {
	Device
	AxisValue(axis Axis) float64
	SetAxisValue(axis Axis, value float64) error
	Override() bool
	SetOverride(enabled bool) error
}

// GridScanner returns the controlled body's devices already classified
// and scoped. Local cells are rigidly part of the body; docked cells
// belong to a temporarily attached body.
type GridScanner interface {
	Actuators() ([]RotationActuator, error)
	SolarPanels() ([]PowerSource, error)
	LocalCells() ([]StorageCell, error)
	DockedCells() ([]StorageCell, error)
}
