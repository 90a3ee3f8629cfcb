package actor

import (
	"path/filepath"
	"testing"
	"time"

	adactor "github.com/nickwest/sunchaser/internal/adapter/actor"
	"github.com/nickwest/sunchaser/internal/adapter/storage"
	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/core/service"
	"github.com/nickwest/sunchaser/internal/util"
	"github.com/nickwest/sunchaser/internal/util/actorutil"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func controlLoopTestGrid() *powergrid.TestGrid {
	return &powergrid.TestGrid{
		ActuatorList: []powergrid.RotationActuator{
			&powergrid.TestActuator{Id: "GYRO_A"},
			&powergrid.TestActuator{Id: "GYRO_B"},
		},
		PanelList: []powergrid.PowerSource{
			&powergrid.TestPanel{Id: "PANEL_A", MaxOutputWatt: 60_000, CurrentWatt: 20_000},
		},
		LocalList: []powergrid.StorageCell{
			&powergrid.TestCell{Id: "CELL_A", MaxOutputWatt: 12_000, MaxInputWatt: 12_000,
				CapacityWh: 50_000, StoredWh: 25_000, EnabledFlag: true},
		},
	}
}

func spawnControlLoop(t *testing.T, grid *powergrid.TestGrid, stream *eventstream.EventStream) (*actor.ActorSystem, *actor.RootContext, *actor.PID) {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.ControlConfig.TickIntervalMillis = 200

	store := storage.NewFileStateStore(filepath.Join(t.TempDir(), "alignment.state"), logger)

	gridProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewGridActor(grid, powergrid.AxisPitch, powergrid.AxisYaw, cfg.ControlConfig.TurnRate, logger)
	})
	gridPID := context.Spawn(gridProps)

	props := actor.PropsFromProducer(func() actor.Actor {
		alignment := &service.DefaultAlignmentLogic{
			AxisA:        powergrid.AxisPitch,
			AxisB:        powergrid.AxisYaw,
			AutoOverride: cfg.ControlConfig.AutoOverride,
			Logger:       logger,
		}
		router := &service.DefaultChargeRouterLogic{
			SizeClass:       domain.SizeClassLarge,
			DockedCharging:  cfg.BatteryConfig.DockedCharging,
			KeepOnDischarge: cfg.BatteryConfig.KeepOnDischarge,
			Logger:          logger,
		}
		return NewControlLoopActor(&cfg, gridPID, alignment, router, store, stream, logger)
	})
	pid := context.Spawn(props)

	return as, context, pid
}

func TestControlLoopRespondsHealthy(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	as, context, pid := spawnControlLoop(t, controlLoopTestGrid(), &eventstream.EventStream{})
	defer as.Shutdown()

	time.Sleep(500 * time.Millisecond)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(err)

	resp, ok := result.(domain.ActorHealthResponse)
	require.True(ok)
	assert.True(resp.Healthy)
	assert.Equal(domain.ACTOR_ID_CONTROL_LOOP, resp.Id)

	context.Stop(pid)
}

func TestControlLoopStartsAlignmentSearch(t *testing.T) {
	assert := assert.New(t)

	grid := controlLoopTestGrid()
	as, context, pid := spawnControlLoop(t, grid, &eventstream.EventStream{})
	defer as.Shutdown()

	// power is below target, so after a few ticks the search must have
	// engaged the pitch axis and taken rotation override
	time.Sleep(1500 * time.Millisecond)

	gyro := grid.ActuatorList[0].(*powergrid.TestActuator)
	assert.NotZero(gyro.Axes[powergrid.AxisPitch])
	assert.True(gyro.OverrideFlag)

	context.Stop(pid)
}

func TestControlLoopPublishesSensorEvents(t *testing.T) {
	assert := assert.New(t)

	stream := &eventstream.EventStream{}
	received := make(chan any, 256)
	sub := stream.Subscribe(func(value any) {
		select {
		case received <- value:
		default:
		}
	})
	defer stream.Unsubscribe(sub)

	as, context, pid := spawnControlLoop(t, controlLoopTestGrid(), stream)
	defer as.Shutdown()

	time.Sleep(1 * time.Second)
	context.Stop(pid)

	var sawArrayPower, sawSwitch bool
	for {
		select {
		case ev := <-received:
			switch tev := ev.(type) {
			case domain.FloatSensorUpdateEvent:
				if tev.Id == domain.SENSOR_ID_ARRAY_POWER {
					sawArrayPower = true
				}
			case domain.SwitchSensorUpdateEvent:
				sawSwitch = true
			}
		default:
			assert.True(sawArrayPower)
			assert.True(sawSwitch)
			return
		}
	}
}

func TestTickPlanKeepsNewlyDockedCellOff(t *testing.T) {
	require := require.New(t)

	logger := zap.Must(zap.NewDevelopment())
	cfg := util.LoadTestConfig()
	loop := NewControlLoopActor(&cfg, nil,
		&service.DefaultAlignmentLogic{AxisA: powergrid.AxisPitch, AxisB: powergrid.AxisYaw, Logger: logger},
		&service.DefaultChargeRouterLogic{SizeClass: domain.SizeClassSmall, DockedCharging: true, Logger: logger},
		storage.NewFileStateStore(filepath.Join(t.TempDir(), "alignment.state"), logger),
		&eventstream.EventStream{}, logger)

	// a docked cell observed for the first time, array surplus at hand
	snapshot := &domain.GridSnapshot{
		Solar: []powergrid.PowerReading{{MaxOutputWatt: 150_000, CurrentOutputWatt: 140_000}},
		DockedCells: []domain.CellState{{
			ID: "DOCK_NEW", Enabled: true, Charging: false,
			Reading: powergrid.PowerReading{MaxInputWatt: 12_000, MaxStoredWattHour: 50_000,
				CurrentStoredWattHour: 10_000, HasStorage: true},
		}},
	}

	plan := loop.runTick(snapshot)

	// the plan stages the cell off and nothing later in the same plan
	// powers it back on; it rejoins the pool on a later tick
	require.Len(plan.ChargeActions, 1)
	action := plan.ChargeActions[0]
	require.Equal("DOCK_NEW", action.CellID)
	require.False(*action.SetEnabled)
	require.True(*action.SetCharge)
}

func TestTickPlanSkipsRoutingWithoutCells(t *testing.T) {
	require := require.New(t)

	logger := zap.Must(zap.NewDevelopment())
	cfg := util.LoadTestConfig()
	loop := NewControlLoopActor(&cfg, nil,
		&service.DefaultAlignmentLogic{AxisA: powergrid.AxisPitch, AxisB: powergrid.AxisYaw, Logger: logger},
		&service.DefaultChargeRouterLogic{SizeClass: domain.SizeClassSmall, Logger: logger},
		storage.NewFileStateStore(filepath.Join(t.TempDir(), "alignment.state"), logger),
		&eventstream.EventStream{}, logger)

	snapshot := &domain.GridSnapshot{
		Solar: []powergrid.PowerReading{{MaxOutputWatt: 150_000, CurrentOutputWatt: 140_000}},
	}

	plan := loop.runTick(snapshot)
	require.Empty(plan.ChargeActions)
}

func TestControlLoopTogglesFromCommands(t *testing.T) {
	assert := assert.New(t)

	stream := &eventstream.EventStream{}
	received := make(chan any, 256)
	sub := stream.Subscribe(func(value any) {
		if _, ok := value.(domain.SwitchSensorUpdateEvent); ok {
			select {
			case received <- value:
			default:
			}
		}
	})
	defer stream.Unsubscribe(sub)

	as, context, pid := spawnControlLoop(t, controlLoopTestGrid(), stream)
	defer as.Shutdown()

	time.Sleep(500 * time.Millisecond)

	context.Send(pid, domain.KeepOnDischargeRequest{Enable: true})
	time.Sleep(300 * time.Millisecond)
	context.Stop(pid)

	var sawKeepOnEnabled bool
	for {
		select {
		case ev := <-received:
			sev := ev.(domain.SwitchSensorUpdateEvent)
			if sev.Id == domain.SWITCH_ID_KEEP_ON_DISCHARGE && sev.Value {
				sawKeepOnEnabled = true
			}
		default:
			assert.True(sawKeepOnEnabled)
			return
		}
	}
}
