package service

import (
	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"go.uber.org/zap"
)

// GyroGroup holds the group-level view of the rotation actuators. The
// two designated axes come from configuration; the third axis must stay
// pinned to zero and only participates in the consistency check.
type GyroGroup struct {
	AxisA  powergrid.Axis
	AxisB  powergrid.Axis
	Logger *zap.Logger
}

// Verify checks that the actuators act as one coherent unit: across the
// whole group at most one axis may carry a non-zero value, and every
// actuator reporting non-zero on it must agree on the signed magnitude.
// One pass, any contradiction short-circuits.
func (g *GyroGroup) Verify(actuators []domain.ActuatorState) bool {
	activeAxis := powergrid.Axis(-1)
	var activeValue float64
	for _, act := range actuators {
		for axis := powergrid.Axis(0); axis < powergrid.AxisCount; axis++ {
			value := act.Axes[axis]
			if value == 0 {
				continue
			}
			if activeAxis < 0 {
				activeAxis = axis
				activeValue = value
				continue
			}
			if axis != activeAxis || value != activeValue {
				g.Logger.Debug("gyro group contradiction",
					zap.String("actuator", act.ID),
					zap.Stringer("axis", axis),
					zap.Float64("value", value))
				return false
			}
		}
	}
	// the pinned axis must never be the one moving
	if activeAxis >= 0 && activeAxis != g.AxisA && activeAxis != g.AxisB {
		g.Logger.Debug("gyro group moving on pinned axis", zap.Stringer("axis", activeAxis))
		return false
	}
	return true
}

// ActiveIntent reports which of the two designated axes carries a
// non-zero commanded direction. Callers verify the group first.
func (g *GyroGroup) ActiveIntent(actuators []domain.ActuatorState) (axis powergrid.Axis, direction float64, moving bool) {
	for _, act := range actuators {
		for _, candidate := range []powergrid.Axis{g.AxisA, g.AxisB} {
			if value := act.Axes[candidate]; value != 0 {
				direction = 1
				if value < 0 {
					direction = -1
				}
				return candidate, direction, true
			}
		}
	}
	return 0, 0, false
}

// PlanRotation translates a rotate command into per-axis values,
// zeroing the two non-active axes. This is the only actuation shape the
// device boundary applies.
func PlanRotation(cmd domain.RotateCommand, turnRate float64) [powergrid.AxisCount]float64 {
	var values [powergrid.AxisCount]float64
	values[cmd.Axis] = turnRate * cmd.Direction
	return values
}
