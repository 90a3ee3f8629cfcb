package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/nickwest/sunchaser/internal/adapter/actor"
	"github.com/nickwest/sunchaser/internal/config"
	"github.com/nickwest/sunchaser/internal/core/domain"
	. "github.com/nickwest/sunchaser/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func() *adactor.MQTTActor

type GridActorProvider func() *adactor.GridActor

type ControlLoopActorProvider func(gridActor *actor.PID, eventStream *eventstream.EventStream) *ControlLoopActor

type MasterControlActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck      healthCheckResult
	eventStream             *eventstream.EventStream
	gridActor               *actor.PID
	mqttActor               *actor.PID
	controlLoopActor        *actor.PID
	gridActorProvider       GridActorProvider
	mqttActorProvider       MQTTActorProvider
	controlLoopActProvider  ControlLoopActorProvider
	eventStreamSubscription *eventstream.Subscription
	logger                  *zap.Logger
}

type healthCheckResult struct {
	gridActorHealthy        bool
	mqttActorHealthy        bool
	controlLoopActorHealthy bool
	checksReceived          int
	respondTo               *actor.PID
}

func NewMasterControlActor(config config.Config, gridActorProvider GridActorProvider,
	mqttActorProvider MQTTActorProvider, controlLoopActProvider ControlLoopActorProvider,
	eventStream *eventstream.EventStream, logger *zap.Logger) *MasterControlActor {
	if eventStream == nil {
		eventStream = &eventstream.EventStream{}
	}
	act := &MasterControlActor{
		config:                 config,
		behavior:               actor.NewBehavior(),
		stash:                  &Stash{},
		logger:                 ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:            eventStream,
		gridActorProvider:      gridActorProvider,
		mqttActorProvider:      mqttActorProvider,
		controlLoopActProvider: controlLoopActProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterControlActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterControlActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Grid child
		gridActorPID, err := state.startGridActor(ctx)
		if err != nil {
			panic(err)
		}
		state.gridActor = gridActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// forward sensor update events to the MQTT child
		rootContext := ctx.ActorSystem().Root
		state.eventStreamSubscription = state.eventStream.Subscribe(func(value any) {
			if event, ok := value.(domain.SensorUpdateEvent); ok {
				rootContext.Send(mqttActorPID, domain.PublishSensorUpdateRequest{Event: event})
			}
		})

		// start ControlLoop child
		controlLoopActorPID, err := state.startControlLoopActor(ctx)
		if err != nil {
			panic(err)
		}
		state.controlLoopActor = controlLoopActorPID

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		if state.eventStreamSubscription != nil {
			state.eventStream.Unsubscribe(state.eventStreamSubscription)
		}
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterControlActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Grid Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.gridActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_GRID,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// ControlLoop Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.controlLoopActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_CONTROL_LOOP,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err == nil && cmd != nil {
				switch pcmd := cmd.(type) {
				case domain.ControlRequest:
					ctx.Send(state.controlLoopActor, pcmd)
				}
			}
		}
	case *actor.Stopping:
		if state.eventStreamSubscription != nil {
			state.eventStream.Unsubscribe(state.eventStreamSubscription)
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_GRID) {
			state.logger.Error("master@default grid error")
			panic(errors.New("grid terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterControlActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_GRID {
				state.currentHealthCheck.gridActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_CONTROL_LOOP {
				state.currentHealthCheck.controlLoopActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterControlActor) startGridActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	gridProps := actor.PropsFromProducer(func() actor.Actor {
		return state.gridActorProvider()
	}, actor.WithSupervisor(supervisor))
	gridActorPID, err := ctx.SpawnNamed(gridProps, domain.ACTOR_ID_GRID)
	if err != nil {
		return nil, err
	}

	return gridActorPID, nil
}

func (state *MasterControlActor) startControlLoopActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	controlLoopProps := actor.PropsFromProducer(func() actor.Actor {
		return state.controlLoopActProvider(state.gridActor, state.eventStream)
	}, actor.WithSupervisor(supervisor))
	controlLoopPID, err := ctx.SpawnNamed(controlLoopProps, domain.ACTOR_ID_CONTROL_LOOP)
	if err != nil {
		return nil, err
	}

	return controlLoopPID, nil
}

func (state *MasterControlActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.gridActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterControlActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider()
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.gridActorHealthy = false
	state.mqttActorHealthy = false
	state.controlLoopActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 3
}

func (state *healthCheckResult) allHealthy() bool {
	return state.gridActorHealthy && state.mqttActorHealthy && state.controlLoopActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
