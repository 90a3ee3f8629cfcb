package actor

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	adactor "github.com/nickwest/sunchaser/internal/adapter/actor"
	"github.com/nickwest/sunchaser/internal/adapter/storage"
	"github.com/nickwest/sunchaser/internal/core/domain"
	"github.com/nickwest/sunchaser/internal/core/service"
	"github.com/nickwest/sunchaser/internal/util"
	"github.com/nickwest/sunchaser/pkg/powergrid"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	grid := &powergrid.TestGrid{
		ActuatorList: []powergrid.RotationActuator{
			&powergrid.TestActuator{Id: "GYRO_A"},
		},
		PanelList: []powergrid.PowerSource{
			&powergrid.TestPanel{Id: "PANEL_A", MaxOutputWatt: 60_000, CurrentWatt: 55_000},
		},
	}
	store := storage.NewFileStateStore(filepath.Join(t.TempDir(), "alignment.state"), logger)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterControlActor(cfg, func() *adactor.GridActor {
			return adactor.NewGridActor(grid, powergrid.AxisPitch, powergrid.AxisYaw, cfg.ControlConfig.TurnRate, logger)
		}, func() *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, logger)
		}, func(gridActor *actor.PID, stream *eventstream.EventStream) *ControlLoopActor {
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
			return NewControlLoopActor(&cfg, gridActor, alignment, router, store, stream, logger)
		}, nil, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		//return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}
