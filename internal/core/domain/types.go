package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nickwest/sunchaser/pkg/powergrid"
)

// grid size classes
const (
	SizeClassLarge = "large"
	SizeClassSmall = "small"
)

// full capacity of a single storage cell per size class, in watt-hours
const (
	LargeCellCapacityWh = 3_000_000
	SmallCellCapacityWh = 50_000
)

// CellCapacityWhForSize returns the capacity constant used by the charge
// router's noise and surplus thresholds.
func CellCapacityWhForSize(sizeClass string) float64 {
	if sizeClass == SizeClassSmall {
		return SmallCellCapacityWh
	}
	return LargeCellCapacityWh
}

// AlignmentState is the only record persisted between ticks. Both fields
// are zero exactly when the search has just reset (success, axis switch
// or invalid-actuator recovery). Its lifetime is one search leg.
type AlignmentState struct {
	LastPowerWatt    float64
	HighestPowerWatt float64
}

func (s AlignmentState) IsZero() bool {
	return s.LastPowerWatt == 0 && s.HighestPowerWatt == 0
}

// Encode serializes the state as "<lastPower>|<highestPower>".
func (s AlignmentState) Encode() string {
	return strconv.FormatFloat(s.LastPowerWatt, 'f', -1, 64) + "|" +
		strconv.FormatFloat(s.HighestPowerWatt, 'f', -1, 64)
}

// DecodeAlignmentState parses the persisted encoding. An empty string
// means no prior state; a malformed segment defaults that field to zero
// rather than failing the tick.
func DecodeAlignmentState(encoded string) AlignmentState {
	var state AlignmentState
	if encoded == "" {
		return state
	}
	parts := strings.SplitN(encoded, "|", 2)
	if v, err := strconv.ParseFloat(parts[0], 64); err == nil {
		state.LastPowerWatt = v
	}
	if len(parts) > 1 {
		if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
			state.HighestPowerWatt = v
		}
	}
	return state
}

// ActuatorState is one actuator's commanded axis values and override
// flag, read directly from the device (no parsing involved).
type ActuatorState struct {
	ID       string
	Axes     [powergrid.AxisCount]float64
	Override bool
}

// CellState is one storage cell's parsed reading plus its observed
// flags. Charging is derived from the status-text marker, the ground
// truth for charge direction.
type CellState struct {
	ID       string
	Reading  powergrid.PowerReading
	Enabled  bool
	Charging bool
	Docked   bool
}

func (c CellState) Full() bool {
	return c.Reading.Full()
}

func (c CellState) HasStoredCharge() bool {
	return c.Reading.CurrentStoredWattHour > 0
}

// GridSnapshot is everything one tick samples from the device boundary.
// Devices whose status failed to parse are excluded, never zeroed.
type GridSnapshot struct {
	Actuators   []ActuatorState
	Solar       []powergrid.PowerReading
	LocalCells  []CellState
	DockedCells []CellState

	// SkippedDevices counts status blocks excluded this tick because
	// their text did not parse.
	SkippedDevices int
}

// ArrayMaxOutputWatt aggregates the solar array's rated output.
func (s *GridSnapshot) ArrayMaxOutputWatt() float64 {
	var total float64
	for _, r := range s.Solar {
		total += r.MaxOutputWatt
	}
	return total
}

// ArrayCurrentOutputWatt aggregates the solar array's live output.
func (s *GridSnapshot) ArrayCurrentOutputWatt() float64 {
	var total float64
	for _, r := range s.Solar {
		total += r.CurrentOutputWatt
	}
	return total
}

// PowerBudget is the per-tick aggregate the charge router decides over.
// Recomputed every tick, never persisted.
type PowerBudget struct {
	ArrayMaxOutput     float64
	ArrayCurrentOutput float64

	LocalMaxOutput     float64
	LocalCurrentOutput float64
	LocalMaxInput      float64
	LocalCurrentInput  float64

	DockedMaxInput     float64
	DockedCurrentInput float64

	// LocalNeedCharge / DockedNeedCharge are true when a disabled or
	// undercharged cell exists that is not currently set to receive
	// charge.
	LocalNeedCharge  bool
	DockedNeedCharge bool
}

func (b PowerBudget) ArraySpareOutputWatt() float64 {
	return b.ArrayMaxOutput - b.ArrayCurrentOutput
}

func (b PowerBudget) LocalSpareOutputWatt() float64 {
	return b.LocalMaxOutput - b.LocalCurrentOutput
}

func (b PowerBudget) DockedSpareInputWatt() float64 {
	return b.DockedMaxInput - b.DockedCurrentInput
}

// StorageInputShortfallWatt is the input still wanted by local storage
// beyond what charging already draws. The terms cancel by construction,
// so the value always reads zero. Kept as-is until the intended formula
// is clarified.
func (b PowerBudget) StorageInputShortfallWatt() float64 {
	wanted := b.LocalMaxInput - b.LocalCurrentInput
	granted := b.LocalMaxInput - b.LocalCurrentInput
	return wanted - granted
}

// ChargeAction is one cell's target flags. Nil fields are left
// untouched on apply.
type ChargeAction struct {
	CellID     string
	SetEnabled *bool
	SetCharge  *bool
}

func (a ChargeAction) String() string {
	var parts []string
	if a.SetEnabled != nil {
		parts = append(parts, fmt.Sprintf("enabled=%t", *a.SetEnabled))
	}
	if a.SetCharge != nil {
		parts = append(parts, fmt.Sprintf("charge=%t", *a.SetCharge))
	}
	return fmt.Sprintf("%s{%s}", a.CellID, strings.Join(parts, " "))
}

// CellPowerOn returns the action that powers a cell on in the given
// charge direction.
func CellPowerOn(cellID string, charge bool) ChargeAction {
	on := true
	c := charge
	return ChargeAction{CellID: cellID, SetEnabled: &on, SetCharge: &c}
}

// CellPowerOff returns the action that powers a cell off, leaving its
// charge direction untouched.
func CellPowerOff(cellID string) ChargeAction {
	off := false
	return ChargeAction{CellID: cellID, SetEnabled: &off}
}

// CellForceChargeOff powers a cell off and marks it to receive charge.
// Applied to newly observed docked cells so a later tick can bring them
// onto the grid without an abrupt load spike.
func CellForceChargeOff(cellID string) ChargeAction {
	off := false
	charge := true
	return ChargeAction{CellID: cellID, SetEnabled: &off, SetCharge: &charge}
}

// RotateCommand points the actuator group along one axis. Applying it
// zeroes the other axes and commands baseRate × Direction on Axis.
type RotateCommand struct {
	Axis      powergrid.Axis
	Direction float64
}

// AlignmentSample is the alignment search's per-tick input: one power
// sample plus the actuator group's observed intent.
type AlignmentSample struct {
	CurrentPowerWatt float64
	TargetPowerWatt  float64

	// Verified is false when the actuator group failed its
	// consistency check this tick.
	Verified bool

	// Moving is true when one of the two designated axes carries a
	// non-zero commanded direction; ActiveAxis/ActiveDirection are
	// only meaningful then.
	Moving          bool
	ActiveAxis      powergrid.Axis
	ActiveDirection float64
}

// AlignmentTickResult is the alignment search's entire output for one
// tick: the state to persist plus the actuation to apply.
type AlignmentTickResult struct {
	State AlignmentState

	ZeroAxes        bool
	Rotate          *RotateCommand
	AcquireOverride bool
	ReleaseOverride bool

	// AtTarget is true while sampled power sits at or above target.
	AtTarget bool

	// Phase names the branch taken, for telemetry only.
	Phase string
}

// ChargeRouteResult is the router's decision for one tick. Outside the
// keep-on safety floor and docked-cell normalization, Actions holds at
// most one entry.
type ChargeRouteResult struct {
	Actions []ChargeAction

	// Reason names the cascade branch taken, for telemetry only.
	Reason string
}

// ControlPlan is the single batch of side effects one tick applies at
// the device boundary.
type ControlPlan struct {
	ZeroAxes      bool
	Rotate        *RotateCommand
	TurnRate      float64
	SetOverride   *bool
	ChargeActions []ChargeAction
}

func (p ControlPlan) Empty() bool {
	return !p.ZeroAxes && p.Rotate == nil && p.SetOverride == nil && len(p.ChargeActions) == 0
}
