package service

import (
	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/core/port"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"go.uber.org/zap"
)

// alignment phases, exposed for telemetry
const (
	AlignPhaseReset      = "reset"
	AlignPhaseAligned    = "aligned"
	AlignPhaseSpinUp     = "spin_up"
	AlignPhaseSettle     = "settle"
	AlignPhaseReverse    = "reverse"
	AlignPhaseClimb      = "climb"
	AlignPhaseAxisSwitch = "axis_switch"
)

// DefaultAlignmentLogic is a one-axis-at-a-time coordinate-ascent hill
// climb over noisy single-sample power feedback. It tolerates exactly
// one sample at the start of a leg, reverses only on an immediate drop
// from a fresh leg, and alternates axes when it detects it has passed a
// peak. It never reverses after the first directional commitment on an
// axis, so an optimum reachable only in the opposite rotational sense
// can stall the search between the two axes.
type DefaultAlignmentLogic struct {
	AxisA        powergrid.Axis
	AxisB        powergrid.Axis
	AutoOverride bool
	Logger       *zap.Logger
}

func (cfg *DefaultAlignmentLogic) Tick(state domain.AlignmentState, sample domain.AlignmentSample) domain.AlignmentTickResult {

	// an unverified group is zeroed before anything else; no rotation
	// command is issued this tick
	if !sample.Verified {
		cfg.Logger.Warn("actuator group failed verification, resetting search")
		return domain.AlignmentTickResult{
			ZeroAxes: true,
			Phase:    AlignPhaseReset,
		}
	}

	// terminal condition, re-entered every tick while power holds
	if sample.CurrentPowerWatt >= sample.TargetPowerWatt {
		result := domain.AlignmentTickResult{
			ZeroAxes: true,
			AtTarget: true,
			Phase:    AlignPhaseAligned,
		}
		if cfg.AutoOverride {
			result.ReleaseOverride = true
		}
		return result
	}

	prevLast := state.LastPowerWatt
	prevHighest := state.HighestPowerWatt

	result := domain.AlignmentTickResult{
		State: domain.AlignmentState{
			LastPowerWatt:    sample.CurrentPowerWatt,
			HighestPowerWatt: prevHighest,
		},
	}
	if cfg.AutoOverride {
		result.AcquireOverride = true
	}

	if !sample.Moving {
		// cold start or post-reset: re-zero for safety and commit to
		// axis A in the positive sense
		result.State.HighestPowerWatt = 0
		result.ZeroAxes = true
		result.Rotate = &domain.RotateCommand{Axis: cfg.AxisA, Direction: 1}
		result.Phase = AlignPhaseSpinUp
		return result
	}

	otherAxis := cfg.AxisB
	if sample.ActiveAxis == cfg.AxisB {
		otherAxis = cfg.AxisA
	}

	switch {
	case prevHighest == 0 && prevLast == 0:
		// first sample since starting this leg: let the next one
		// establish a trend instead of reacting to noise
		result.Phase = AlignPhaseSettle
	case prevHighest == 0 && sample.CurrentPowerWatt < prevLast:
		// power dropped immediately, the guessed direction was wrong
		result.Rotate = &domain.RotateCommand{
			Axis:      sample.ActiveAxis,
			Direction: -sample.ActiveDirection,
		}
		result.Phase = AlignPhaseReverse
	case sample.CurrentPowerWatt >= prevLast:
		// still improving, keep going
		result.State.HighestPowerWatt = sample.CurrentPowerWatt
		result.Phase = AlignPhaseClimb
	default:
		// dropped after improving: this axis's peak was passed, refine
		// on the other axis
		result.State = domain.AlignmentState{}
		result.Rotate = &domain.RotateCommand{Axis: otherAxis, Direction: 1}
		result.Phase = AlignPhaseAxisSwitch
	}
	cfg.Logger.Debug("alignment tick",
		zap.String("phase", result.Phase),
		zap.Float64("power", sample.CurrentPowerWatt),
		zap.Float64("target", sample.TargetPowerWatt))
	return result
}

// ensure interface compliance
var _ port.AlignmentLogic = (*DefaultAlignmentLogic)(nil)
