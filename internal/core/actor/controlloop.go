package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/nickwest/sunchaser/internal/config"
	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/core/events"
	"github.com/nickwest/sunchaser/internal/core/port"
	"github.com/nickwest/sunchaser/internal/core/service"
	. "github.com/nickwest/sunchaser/internal/util/actorutil"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// ControlLoopActor drives the periodic control tick: sample the grid,
// advance the alignment search, route charge, then apply the combined
// plan. A tick never overlaps another: the next one is scheduled only
// after the previous plan has been applied.
type ControlLoopActor struct {
	ActorWithStates
	scheduler   *scheduler.TimerScheduler
	stash       *Stash
	gridActor   *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream

	gyros      *service.GyroGroup
	alignment  port.AlignmentLogic
	router     port.ChargeRouterLogic
	stateStore port.AlignmentStateStore

	batteryManagement bool
	dockedCharging    bool
	keepOnDischarge   bool
	minPowerPercent   float64

	searchState  domain.AlignmentState
	pendingState domain.AlignmentState
	tickInterval time.Duration

	logger *zap.Logger
}

type controlTick struct {
}

func NewControlLoopActor(cfg *config.Config, gridActor *actor.PID, alignment port.AlignmentLogic,
	router port.ChargeRouterLogic, stateStore port.AlignmentStateStore,
	eventStream *eventstream.EventStream, logger *zap.Logger) *ControlLoopActor {

	axisA, _ := powergrid.ParseAxis(cfg.ControlConfig.AxisA)
	axisB, _ := powergrid.ParseAxis(cfg.ControlConfig.AxisB)

	act := &ControlLoopActor{
		config:      cfg,
		gridActor:   gridActor,
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_CONTROL_LOOP, logger),
		eventStream: eventStream,
		gyros: &service.GyroGroup{
			AxisA:  axisA,
			AxisB:  axisB,
			Logger: ActorLogger(domain.ACTOR_ID_CONTROL_LOOP, logger),
		},
		alignment:         alignment,
		router:            router,
		stateStore:        stateStore,
		batteryManagement: cfg.BatteryConfig.Enable,
		dockedCharging:    cfg.BatteryConfig.DockedCharging,
		keepOnDischarge:   cfg.BatteryConfig.KeepOnDischarge,
		minPowerPercent:   cfg.ControlConfig.MinPowerPercent,
		tickInterval:      time.Duration(cfg.ControlConfig.TickIntervalMillis) * time.Millisecond,
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(CLStartingState{
		actor: act,
	})
	return act
}

func (state *ControlLoopActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type CLStartingState struct {
	ActorState
	actor *ControlLoopActor
}

func (state CLStartingState) Name() string {
	return "starting"
}

func (state CLStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("control_loop@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)

		encoded, err := state.actor.stateStore.Load()
		if err != nil {
			state.actor.logger.Error("control_loop@starting could not load persisted state", zap.Error(err))
			panic(err)
		}
		state.actor.searchState = domain.DecodeAlignmentState(encoded)

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.gridActor, domain.GetGridInfoRequest{}, 5*time.Second), func(err error) any {
			return domain.GetGridInfoResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.actor.Become(CLWaitingInfoState{
			actor: state.actor,
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("control_loop@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting info state

type CLWaitingInfoState struct {
	ActorState
	actor *ControlLoopActor
}

func (state CLWaitingInfoState) Name() string {
	return "waitingInfo"
}

func (state CLWaitingInfoState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetGridInfoResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("control_loop@waitingInfo GetGridInfoResponse error", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.actor.logger.Debug("control_loop@waitingInfo GetGridInfoResponse")
		// a grid without actuators or without solar sources cannot be
		// controlled, stop here
		if msg.Info.ActuatorCount == 0 {
			panic(powergrid.ErrNoActuators)
		}
		if msg.Info.SolarCount == 0 {
			panic(powergrid.ErrNoSolarSources)
		}
		state.actor.logger.Sugar().Infof("grid devices: %d actuators, %d solar, %d local cells, %d docked cells",
			msg.Info.ActuatorCount, msg.Info.SolarCount, msg.Info.LocalCellCount, msg.Info.DockedCellCount)
		state.actor.publishSwitchStates()
		state.actor.scheduler.RequestOnce(state.actor.tickInterval, ctx.Self(), controlTick{})
		state.actor.Become(CLIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control_loop@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type CLIdleState struct {
	ActorState
	actor *ControlLoopActor
}

func (state CLIdleState) Name() string {
	return "idle"
}

func (state CLIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("control_loop@idle: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL_LOOP,
			Healthy: true,
			State:   state.Name(),
		})
	case controlTick:
		state.actor.logger.Debug("control_loop@idle controlTick")
		state.actor.BecomeStacked(CLAwaitSnapshotState{
			actor: state.actor,
		}.OnEnterAction(ctx))
	case domain.GetGridSnapshotResponse:
		if msg.HasResponseError() {
			// skip this tick, the grid will be sampled again
			state.actor.logger.Error("control_loop@idle GetGridSnapshotResponse error", zap.Error(msg.GetResponseError()))
			state.actor.scheduler.RequestOnce(state.actor.tickInterval, ctx.Self(), controlTick{})
			return
		}
		plan := state.actor.runTick(msg.Snapshot)
		if plan.Empty() {
			state.actor.persistState()
			state.actor.scheduler.RequestOnce(state.actor.tickInterval, ctx.Self(), controlTick{})
			return
		}
		state.actor.BecomeStacked(CLAwaitApplyState{
			actor: state.actor,
		}.OnEnterAction(ctx, plan))
	case domain.ApplyControlPlanResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("control_loop@idle ApplyControlPlanResponse error", zap.Error(msg.GetResponseError()))
		} else {
			state.actor.persistState()
		}
		state.actor.scheduler.RequestOnce(state.actor.tickInterval, ctx.Self(), controlTick{})
	case domain.ControlRequest:
		state.actor.handleControlRequest(msg)
	default:
		state.actor.logger.Debug("control_loop@idle: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Await snapshot state

type CLAwaitSnapshotState struct {
	ActorState
	actor *ControlLoopActor
}

func (state CLAwaitSnapshotState) Name() string {
	return "awaitSnapshot"
}

func (state CLAwaitSnapshotState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetGridSnapshotResponse:
		ctx.SetReceiveTimeout(0)
		ctx.RequestWithCustomSender(ctx.Self(), msg, ctx.Sender())
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Debug("control_loop@awaitSnapshot: ReceiveTimeout")
		ctx.RequestWithCustomSender(ctx.Self(), domain.GetGridSnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: errors.New("receive timeout"),
			},
		}, ctx.Sender())
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control_loop@awaitSnapshot: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state CLAwaitSnapshotState) OnEnterAction(ctx actor.Context) CLAwaitSnapshotState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.gridActor,
		domain.GetGridSnapshotRequest{}, 5*time.Second),
		func(err error) any {
			return domain.GetGridSnapshotResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	ctx.SetReceiveTimeout(5 * time.Second)
	return state
}

// Await apply state

type CLAwaitApplyState struct {
	ActorState
	actor *ControlLoopActor
}

func (state CLAwaitApplyState) Name() string {
	return "awaitApply"
}

func (state CLAwaitApplyState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ApplyControlPlanResponse:
		ctx.SetReceiveTimeout(0)
		ctx.RequestWithCustomSender(ctx.Self(), msg, ctx.Sender())
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Debug("control_loop@awaitApply: ReceiveTimeout")
		ctx.RequestWithCustomSender(ctx.Self(), domain.ApplyControlPlanResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: errors.New("receive timeout"),
			},
		}, ctx.Sender())
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control_loop@awaitApply: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state CLAwaitApplyState) OnEnterAction(ctx actor.Context, plan domain.ControlPlan) CLAwaitApplyState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.gridActor,
		domain.ApplyControlPlanRequest{Plan: plan}, 5*time.Second),
		func(err error) any {
			return domain.ApplyControlPlanResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	ctx.SetReceiveTimeout(5 * time.Second)
	return state
}

// Tick pipeline

// runTick is the pure decision part of one control tick: alignment
// search plus charge routing over a single snapshot. It updates
// pendingState, which is persisted only after the plan is applied.
func (a *ControlLoopActor) runTick(snapshot *domain.GridSnapshot) domain.ControlPlan {
	currentPower := snapshot.ArrayCurrentOutputWatt()
	targetPower := snapshot.ArrayMaxOutputWatt() * a.minPowerPercent / 100

	verified := a.gyros.Verify(snapshot.Actuators)
	axis, direction, moving := a.gyros.ActiveIntent(snapshot.Actuators)

	sample := domain.AlignmentSample{
		CurrentPowerWatt: currentPower,
		TargetPowerWatt:  targetPower,
		Verified:         verified,
		Moving:           moving,
		ActiveAxis:       axis,
		ActiveDirection:  direction,
	}
	result := a.alignment.Tick(a.searchState, sample)
	a.pendingState = result.State

	plan := domain.ControlPlan{
		ZeroAxes: result.ZeroAxes,
		Rotate:   result.Rotate,
		TurnRate: a.config.ControlConfig.TurnRate,
	}
	if result.AcquireOverride {
		v := true
		plan.SetOverride = &v
	} else if result.ReleaseOverride {
		v := false
		plan.SetOverride = &v
	}

	a.publishEvents(events.SnapshotToUpdateEvents(snapshot, targetPower))
	a.publishEvents(events.AlignmentToUpdateEvents(result))

	if a.batteryManagement && len(snapshot.LocalCells)+len(snapshot.DockedCells) > 0 {
		budget, normalize := service.BuildPowerBudget(snapshot)
		docked := service.EligibleDocked(snapshot.DockedCells, normalize)
		route := a.router.Route(budget, snapshot.LocalCells, docked, currentPower, targetPower)
		plan.ChargeActions = append(normalize, route.Actions...)
		a.publishEvents(events.BudgetToUpdateEvents(budget))
		a.publishEvents(events.RouteToUpdateEvents(route))
	}

	return plan
}

func (a *ControlLoopActor) persistState() {
	if a.pendingState == a.searchState {
		return
	}
	a.searchState = a.pendingState
	if err := a.stateStore.Save(a.searchState.Encode()); err != nil {
		a.logger.Error("control_loop: could not persist state", zap.Error(err))
	}
}

func (a *ControlLoopActor) handleControlRequest(msg domain.ControlRequest) {
	switch cmd := msg.(type) {
	case domain.BatteryManagementRequest:
		a.logger.Sugar().Debugf("control_loop: cmd battery management %t", cmd.Enable)
		a.batteryManagement = cmd.Enable
		a.eventStream.Publish(events.SwitchToUpdateEvent(domain.SWITCH_ID_BATTERY_MANAGEMENT, cmd.Enable))
	case domain.DockedChargingRequest:
		a.logger.Sugar().Debugf("control_loop: cmd docked charging %t", cmd.Enable)
		a.dockedCharging = cmd.Enable
		a.router.SetDockedCharging(cmd.Enable)
		a.eventStream.Publish(events.SwitchToUpdateEvent(domain.SWITCH_ID_DOCKED_CHARGING, cmd.Enable))
	case domain.KeepOnDischargeRequest:
		a.logger.Sugar().Debugf("control_loop: cmd keep on discharge %t", cmd.Enable)
		a.keepOnDischarge = cmd.Enable
		a.router.SetKeepOnDischarge(cmd.Enable)
		a.eventStream.Publish(events.SwitchToUpdateEvent(domain.SWITCH_ID_KEEP_ON_DISCHARGE, cmd.Enable))
	case domain.SetMinPowerPercentRequest:
		a.logger.Sugar().Debugf("control_loop: cmd min power percent %f", cmd.Percent)
		a.minPowerPercent = cmd.Percent
		a.eventStream.Publish(events.MinPowerPercentToUpdateEvent(cmd.Percent))
	}
}

func (a *ControlLoopActor) publishSwitchStates() {
	a.eventStream.Publish(events.SwitchToUpdateEvent(domain.SWITCH_ID_BATTERY_MANAGEMENT, a.batteryManagement))
	a.eventStream.Publish(events.SwitchToUpdateEvent(domain.SWITCH_ID_DOCKED_CHARGING, a.dockedCharging))
	a.eventStream.Publish(events.SwitchToUpdateEvent(domain.SWITCH_ID_KEEP_ON_DISCHARGE, a.keepOnDischarge))
	a.eventStream.Publish(events.MinPowerPercentToUpdateEvent(a.minPowerPercent))
}

func (a *ControlLoopActor) publishEvents(evs []any) {
	for _, ev := range evs {
		a.eventStream.Publish(ev)
	}
}
