package service

import (
	"math"

	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/core/port"

	"go.uber.org/zap"
)

// router branch names, exposed for telemetry
const (
	RouteDischargeFloor     = "discharge_floor"
	RouteDrainFullCell      = "drain_full_cell"
	RouteOverloadNoise      = "overload_noise"
	RouteOverloadStopCharge = "overload_stop_charge"
	RouteOverloadDischarge  = "overload_discharge"
	RouteOverloadShedDocked = "overload_shed_docked"
	RouteOverloadHold       = "overload_hold"
	RouteReleaseIdleCell    = "release_idle_cell"
	RouteTopUpLocal         = "top_up_local"
	RouteDockedSaturated    = "docked_saturated"
	RouteChargeDocked       = "charge_docked"
	RouteBackfeedDocked     = "backfeed_docked"
	RouteIdle               = "idle"
)

// DefaultChargeRouterLogic routes power surplus/deficit across the
// local and docked cell pools. Outside the keep-on safety floor it
// applies at most one state-changing action per tick, a deliberate
// throttle: the combined effect of batch-toggling many cells cannot be
// observed until the next sample.
type DefaultChargeRouterLogic struct {
	SizeClass       string
	DockedCharging  bool
	KeepOnDischarge bool
	Logger          *zap.Logger
}

func (cfg *DefaultChargeRouterLogic) SetDockedCharging(enabled bool) {
	cfg.DockedCharging = enabled
}

func (cfg *DefaultChargeRouterLogic) SetKeepOnDischarge(enabled bool) {
	cfg.KeepOnDischarge = enabled
}

// BuildPowerBudget aggregates a snapshot into the router's decision
// input. It also returns the normalization actions for docked cells not
// yet marked to receive charge: those are forced to a charging intent
// and powered off so a later tick can bring them onto the grid without
// an abrupt multi-cell load spike.
func BuildPowerBudget(snapshot *domain.GridSnapshot) (domain.PowerBudget, []domain.ChargeAction) {
	budget := domain.PowerBudget{
		ArrayMaxOutput:     snapshot.ArrayMaxOutputWatt(),
		ArrayCurrentOutput: snapshot.ArrayCurrentOutputWatt(),
	}
	for _, cell := range snapshot.LocalCells {
		budget.LocalMaxOutput += cell.Reading.MaxOutputWatt
		budget.LocalCurrentOutput += cell.Reading.CurrentOutputWatt
		budget.LocalMaxInput += cell.Reading.MaxInputWatt
		budget.LocalCurrentInput += cell.Reading.CurrentInputWatt
		if cellNeedsCharge(cell) {
			budget.LocalNeedCharge = true
		}
	}
	var normalize []domain.ChargeAction
	for _, cell := range snapshot.DockedCells {
		budget.DockedMaxInput += cell.Reading.MaxInputWatt
		budget.DockedCurrentInput += cell.Reading.CurrentInputWatt
		if cellNeedsCharge(cell) {
			budget.DockedNeedCharge = true
		}
		if !cell.Charging {
			normalize = append(normalize, domain.CellForceChargeOff(cell.ID))
		}
	}
	return budget, normalize
}

// EligibleDocked drops the cells staged by BuildPowerBudget from this
// tick's routing pool. A freshly staged cell spends the rest of the tick
// off the grid and only re-enters the pool on a later tick, once the
// cascade powers it back on.
func EligibleDocked(docked []domain.CellState, staged []domain.ChargeAction) []domain.CellState {
	if len(staged) == 0 {
		return docked
	}
	stagedIDs := make(map[string]struct{}, len(staged))
	for _, action := range staged {
		stagedIDs[action.CellID] = struct{}{}
	}
	eligible := make([]domain.CellState, 0, len(docked))
	for _, cell := range docked {
		if _, ok := stagedIDs[cell.ID]; ok {
			continue
		}
		eligible = append(eligible, cell)
	}
	return eligible
}

// a disabled or undercharged cell not currently set to receive charge
func cellNeedsCharge(cell domain.CellState) bool {
	return (!cell.Enabled || !cell.Full()) && !cell.Charging
}

func (cfg *DefaultChargeRouterLogic) Route(budget domain.PowerBudget, local, docked []domain.CellState,
	currentPowerWatt, targetPowerWatt float64) domain.ChargeRouteResult {

	cellCapacity := domain.CellCapacityWhForSize(cfg.SizeClass)

	// full-power-loss guard: a safety floor, applied to every cell and
	// not rate-limited
	if cfg.KeepOnDischarge && currentPowerWatt < targetPowerWatt {
		var actions []domain.ChargeAction
		for _, cell := range local {
			if !cell.Enabled || cell.Charging {
				actions = append(actions, domain.CellPowerOn(cell.ID, false))
			}
		}
		return domain.ChargeRouteResult{Actions: actions, Reason: RouteDischargeFloor}
	}

	// drain cells that hit capacity so they keep serving the grid
	if cfg.KeepOnDischarge {
		for _, cell := range local {
			if cell.Full() && (!cell.Enabled || cell.Charging) {
				return cfg.one(domain.CellPowerOn(cell.ID, false), RouteDrainFullCell)
			}
		}
	}

	dockedNeedsInput := budget.DockedSpareInputWatt() > 0

	// overload branch: array and local cells both report zero spare
	// output capacity
	if budget.ArraySpareOutputWatt() <= 0 && budget.LocalSpareOutputWatt() <= 0 {
		shortfall := math.Abs(budget.ArrayMaxOutput - budget.LocalMaxInput)
		if !dockedNeedsInput && !budget.DockedNeedCharge &&
			currentPowerWatt >= targetPowerWatt && shortfall < cellCapacity {
			// below one cell's capacity for this size class: noise
			return domain.ChargeRouteResult{Reason: RouteOverloadNoise}
		}
		for _, cell := range local {
			if cell.Charging && cell.Enabled {
				return cfg.one(domain.CellPowerOff(cell.ID), RouteOverloadStopCharge)
			}
		}
		for _, cell := range local {
			if cell.HasStoredCharge() && (!cell.Enabled || cell.Charging) {
				return cfg.one(domain.CellPowerOn(cell.ID, false), RouteOverloadDischarge)
			}
		}
		if cfg.DockedCharging && budget.StorageInputShortfallWatt() > cellCapacity {
			for _, cell := range docked {
				if cell.Charging && cell.Enabled {
					return cfg.one(domain.CellPowerOff(cell.ID), RouteOverloadShedDocked)
				}
			}
		}
		// no viable corrective action: a designed equilibrium
		return domain.ChargeRouteResult{Reason: RouteOverloadHold}
	}

	// no docked demand: manage the local pool only
	if !cfg.DockedCharging || !dockedNeedsInput {
		if !cfg.KeepOnDischarge {
			for _, cell := range local {
				if cell.Enabled && !cell.Charging {
					return cfg.one(domain.CellPowerOff(cell.ID), RouteReleaseIdleCell)
				}
			}
		}
		if currentPowerWatt >= targetPowerWatt || budget.ArraySpareOutputWatt() > cellCapacity {
			for _, cell := range local {
				if !cell.Full() && !(cell.Charging && cell.Enabled) {
					return cfg.one(domain.CellPowerOn(cell.ID, true), RouteTopUpLocal)
				}
			}
		}
		return domain.ChargeRouteResult{Reason: RouteIdle}
	}

	// every docked cell that wants charge is already charging; what to
	// do with the remaining array surplus is an open policy question
	// upstream, so hold
	if !budget.DockedNeedCharge && budget.ArraySpareOutputWatt() > cellCapacity {
		return domain.ChargeRouteResult{Reason: RouteDockedSaturated}
	}

	combinedSpareOutput := budget.ArraySpareOutputWatt() + budget.LocalSpareOutputWatt()
	combinedDraw := budget.LocalCurrentInput + budget.DockedCurrentInput
	if combinedSpareOutput > combinedDraw {
		for _, cell := range docked {
			if !cell.Full() && (!cell.Enabled || !cell.Charging) {
				return cfg.one(domain.CellPowerOn(cell.ID, true), RouteChargeDocked)
			}
		}
	}
	for _, cell := range local {
		if cell.HasStoredCharge() && (!cell.Enabled || cell.Charging) {
			return cfg.one(domain.CellPowerOn(cell.ID, false), RouteBackfeedDocked)
		}
	}
	return domain.ChargeRouteResult{Reason: RouteIdle}
}

func (cfg *DefaultChargeRouterLogic) one(action domain.ChargeAction, reason string) domain.ChargeRouteResult {
	cfg.Logger.Debug("charge route", zap.String("reason", reason), zap.Stringer("action", action))
	return domain.ChargeRouteResult{Actions: []domain.ChargeAction{action}, Reason: reason}
}

// ensure interface compliance
var _ port.ChargeRouterLogic = (*DefaultChargeRouterLogic)(nil)
