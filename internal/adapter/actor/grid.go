package actor

import (
	"fmt"
	"time"

	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/core/service"
	"github.com/nickwest/sunchaser/internal/util/actorutil"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const gridIOTimeout = 5 * time.Second

// GridActor owns the device boundary: every read of grid status text
// and every actuation goes through it, one background task at a time.
type GridActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	scanner  powergrid.GridScanner
	axisA    powergrid.Axis
	axisB    powergrid.Axis
	turnRate float64
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewGridActor(scanner powergrid.GridScanner, axisA, axisB powergrid.Axis, turnRate float64, logger *zap.Logger) *GridActor {
	act := &GridActor{
		scanner:  scanner,
		axisA:    axisA,
		axisB:    axisB,
		turnRate: turnRate,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger("grid", logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *GridActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *GridActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("grid@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_GRID,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetGridInfoRequest:
		state.logger.Debug("grid@default: GetGridInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getGridInfo),
			mapTaskResult[domain.GetGridInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetGridInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(gridIOTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingGrid)
	case domain.GetGridSnapshotRequest:
		state.logger.Debug("grid@default: GetGridSnapshotRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getGridSnapshot),
			mapTaskResult[domain.GetGridSnapshotResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetGridSnapshotResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(gridIOTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingGrid)
	case domain.ApplyControlPlanRequest:
		state.logger.Debug("grid@default: ApplyControlPlanRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		plan := msg.Plan
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.ApplyControlPlanResponse, error) {
			return state.applyControlPlan(plan)
		}),
			mapTaskResult[domain.ApplyControlPlanResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.ApplyControlPlanResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(gridIOTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingGrid)
	default:
		state.logger.Debug("grid@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *GridActor) WaitingGrid(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("grid@WaitingGrid backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("grid@WaitingGrid stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *GridActor) getGridInfo() (*domain.GetGridInfoResponse, error) {
	actuators, err := a.scanner.Actuators()
	if err != nil {
		return nil, err
	}
	panels, err := a.scanner.SolarPanels()
	if err != nil {
		return nil, err
	}
	local, err := a.scanner.LocalCells()
	if err != nil {
		return nil, err
	}
	docked, err := a.scanner.DockedCells()
	if err != nil {
		return nil, err
	}
	return &domain.GetGridInfoResponse{
		Info: &domain.GridInfo{
			ActuatorCount:   len(actuators),
			SolarCount:      len(panels),
			LocalCellCount:  len(local),
			DockedCellCount: len(docked),
		},
	}, nil
}

func (a *GridActor) getGridSnapshot() (*domain.GetGridSnapshotResponse, error) {
	snapshot := &domain.GridSnapshot{}

	actuators, err := a.scanner.Actuators()
	if err != nil {
		return nil, err
	}
	for _, act := range actuators {
		var axes [powergrid.AxisCount]float64
		for axis := powergrid.Axis(0); axis < powergrid.AxisCount; axis++ {
			axes[axis] = act.AxisValue(axis)
		}
		snapshot.Actuators = append(snapshot.Actuators, domain.ActuatorState{
			ID:       act.ID(),
			Axes:     axes,
			Override: act.Override(),
		})
	}

	panels, err := a.scanner.SolarPanels()
	if err != nil {
		return nil, err
	}
	for _, panel := range panels {
		reading, err := powergrid.ParseStatusText(panel.StatusText())
		if err != nil {
			a.logger.Warn("skipping unparseable solar status",
				zap.String("device", panel.ID()), zap.Error(err))
			snapshot.SkippedDevices++
			continue
		}
		snapshot.Solar = append(snapshot.Solar, *reading)
	}

	local, err := a.scanner.LocalCells()
	if err != nil {
		return nil, err
	}
	snapshot.LocalCells = a.scanCells(local, false, snapshot)

	docked, err := a.scanner.DockedCells()
	if err != nil {
		return nil, err
	}
	snapshot.DockedCells = a.scanCells(docked, true, snapshot)

	return &domain.GetGridSnapshotResponse{Snapshot: snapshot}, nil
}

func (a *GridActor) scanCells(cells []powergrid.StorageCell, docked bool, snapshot *domain.GridSnapshot) []domain.CellState {
	var states []domain.CellState
	for _, cell := range cells {
		status := cell.StatusText()
		reading, err := powergrid.ParseStatusText(status)
		if err != nil {
			a.logger.Warn("skipping unparseable cell status",
				zap.String("device", cell.ID()), zap.Error(err))
			snapshot.SkippedDevices++
			continue
		}
		states = append(states, domain.CellState{
			ID:       cell.ID(),
			Reading:  *reading,
			Enabled:  cell.Enabled(),
			Charging: powergrid.CellSetToCharge(status),
			Docked:   docked,
		})
	}
	return states
}

func (a *GridActor) applyControlPlan(plan domain.ControlPlan) (*domain.ApplyControlPlanResponse, error) {
	applied := 0

	actuators, err := a.scanner.Actuators()
	if err != nil {
		return nil, err
	}

	if plan.ZeroAxes {
		for _, act := range actuators {
			for axis := powergrid.Axis(0); axis < powergrid.AxisCount; axis++ {
				if err := act.SetAxisValue(axis, 0); err != nil {
					return nil, err
				}
			}
		}
		applied++
	}

	if plan.Rotate != nil {
		values := service.PlanRotation(*plan.Rotate, a.turnRate)
		for _, act := range actuators {
			for axis := powergrid.Axis(0); axis < powergrid.AxisCount; axis++ {
				if err := act.SetAxisValue(axis, values[axis]); err != nil {
					return nil, err
				}
			}
		}
		applied++
	}

	if plan.SetOverride != nil {
		for _, act := range actuators {
			// only touch actuators whose flag actually differs
			if act.Override() != *plan.SetOverride {
				if err := act.SetOverride(*plan.SetOverride); err != nil {
					return nil, err
				}
			}
		}
		applied++
	}

	if len(plan.ChargeActions) > 0 {
		cells, err := a.cellIndex()
		if err != nil {
			return nil, err
		}
		for _, action := range plan.ChargeActions {
			cell, ok := cells[action.CellID]
			if !ok {
				a.logger.Warn("charge action for unknown cell", zap.String("cell", action.CellID))
				continue
			}
			if action.SetCharge != nil {
				if err := cell.SetChargeMode(*action.SetCharge); err != nil {
					return nil, err
				}
			}
			if action.SetEnabled != nil {
				if err := cell.SetEnabled(*action.SetEnabled); err != nil {
					return nil, err
				}
			}
			applied++
		}
	}

	return &domain.ApplyControlPlanResponse{AppliedActions: applied}, nil
}

func (a *GridActor) cellIndex() (map[string]powergrid.StorageCell, error) {
	local, err := a.scanner.LocalCells()
	if err != nil {
		return nil, err
	}
	docked, err := a.scanner.DockedCells()
	if err != nil {
		return nil, err
	}
	index := make(map[string]powergrid.StorageCell, len(local)+len(docked))
	for _, cell := range local {
		index[cell.ID()] = cell
	}
	for _, cell := range docked {
		index[cell.ID()] = cell
	}
	return index, nil
}

func mapTaskResult[T any](replyTo *actor.PID) func(*T) *backgroundTaskResult {
	return func(value *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *value,
			replyTo: replyTo,
		}
	}
}
